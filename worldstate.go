package stride

// WorldState is the structured output of one perception pass. It is
// produced solely by the perception engine and is read-only to every
// downstream component.
type WorldState struct {
	// Facts maps named observations to their values, accumulated from the
	// query and from tool output seen so far.
	Facts map[string]string `json:"facts"`

	// OpenQuestions lists what the model still needs to find out before the
	// goal can be satisfied.
	OpenQuestions []string `json:"openQuestions,omitempty"`

	// Confidence is the model's self-reported confidence in this snapshot,
	// in the range [0, 1].
	Confidence float64 `json:"confidence"`

	// GoalAchieved reports whether the original user goal is satisfied.
	GoalAchieved bool `json:"goalAchieved"`

	// Summary is the model's solution summary, meaningful once
	// GoalAchieved is true.
	Summary string `json:"summary,omitempty"`

	// Reasoning is the model's explanation of the snapshot.
	Reasoning string `json:"reasoning,omitempty"`
}

// Fact returns the named fact and whether it is present.
func (w *WorldState) Fact(name string) (string, bool) {
	if w == nil || w.Facts == nil {
		return "", false
	}
	v, ok := w.Facts[name]
	return v, ok
}
