package stride

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a Session.
type Status string

const (
	// StatusActive means the session loop is still running.
	StatusActive Status = "active"
	// StatusSucceeded means the goal was satisfied.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the loop gave up (stalled plan, exhausted retries,
	// or a fatal executor error).
	StatusFailed Status = "failed"
	// StatusAborted means the caller cancelled the run.
	StatusAborted Status = "aborted"
)

// Terminal returns true if the status is one of the end states.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusAborted
}

// Phase identifies a stage of the agent loop state machine.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhasePerceiving Phase = "perceiving"
	PhaseDeciding   Phase = "deciding"
	PhaseValidating Phase = "validating"
	PhaseExecuting  Phase = "executing"
	PhaseUpdating   Phase = "updating"
	PhaseTerminated Phase = "terminated"
)

// PhaseFailure records one recoverable failure of a loop phase. Failures
// are kept on the Iteration so a terminal session explains itself.
type PhaseFailure struct {
	Phase   Phase     `json:"phase"`
	Attempt int       `json:"attempt"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// Iteration is one pass of the agent loop. The loop creates it at entry,
// fills it in as phases complete, and seals it at exit. A sealed iteration
// is never mutated.
type Iteration struct {
	Index      int            `json:"index"`
	WorldState *WorldState    `json:"worldState,omitempty"`
	Plan       *Plan          `json:"plan,omitempty"`
	Results    []StepResult   `json:"results,omitempty"`
	Failures   []PhaseFailure `json:"failures,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
}

// Session identifies one user interaction and carries the full iteration
// history. It is owned exclusively by the agent loop for its lifetime;
// once the status is terminal the session is immutable.
type Session struct {
	ID          string      `json:"id"`
	Query       string      `json:"query"`
	Iterations  []Iteration `json:"iterations"`
	Status      Status      `json:"status"`
	FinalAnswer string      `json:"finalAnswer,omitempty"`
	LastError   string      `json:"lastError,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// NewSession creates an active session for the given query.
func NewSession(query string) *Session {
	return &Session{
		ID:        "ses-" + uuid.New().String(),
		Query:     query,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
}

// Seal transitions the session to a terminal status. It is a no-op if the
// session is already terminal.
func (s *Session) Seal(status Status, finalAnswer string, lastErr error) {
	if s.Status.Terminal() {
		return
	}
	s.Status = status
	s.FinalAnswer = finalAnswer
	if lastErr != nil {
		s.LastError = lastErr.Error()
	}
}

// LatestWorldState returns the most recent perception snapshot, or nil if
// no iteration has perceived yet.
func (s *Session) LatestWorldState() *WorldState {
	for i := len(s.Iterations) - 1; i >= 0; i-- {
		if ws := s.Iterations[i].WorldState; ws != nil {
			return ws
		}
	}
	return nil
}

// FinalPlan returns the most recent plan revision, or nil if no decision
// has been made yet.
func (s *Session) FinalPlan() *Plan {
	for i := len(s.Iterations) - 1; i >= 0; i-- {
		if p := s.Iterations[i].Plan; p != nil {
			return p
		}
	}
	return nil
}
