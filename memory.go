package stride

import (
	"time"

	"github.com/google/uuid"
)

// MemoryRecord is the persisted summary of a finished session: the query,
// the final plan, and the outcome. Records are created once at session
// termination and never mutated.
type MemoryRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Query       string    `json:"query"`
	Plan        Plan      `json:"plan"`
	Status      Status    `json:"status"`
	FinalAnswer string    `json:"finalAnswer,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewMemoryRecord builds a record from a terminal session. The final plan
// is copied so the record does not alias the session tree.
func NewMemoryRecord(s *Session) MemoryRecord {
	rec := MemoryRecord{
		ID:          "mem-" + uuid.New().String(),
		SessionID:   s.ID,
		Query:       s.Query,
		Status:      s.Status,
		FinalAnswer: s.FinalAnswer,
		CreatedAt:   time.Now(),
	}
	if p := s.FinalPlan(); p != nil {
		rec.Plan = p.Clone()
	}
	return rec
}
