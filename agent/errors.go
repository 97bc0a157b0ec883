package agent

import "errors"

// ErrIterationCeiling is recorded on the session when the loop hits the
// configured iteration cap without the decision engine signalling
// completion.
var ErrIterationCeiling = errors.New("agent: iteration ceiling reached")
