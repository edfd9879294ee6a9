package harness

import (
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/tracker"
)

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Step       int    `json:"step"`
	Action     string `json:"action"`
	Matched    bool   `json:"matched"`
	CriteriaID string `json:"criteria_id,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Trace holds one entry per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Match is the visitor's recorded promotion, if any.
	Match *tracker.Match `json:"match,omitempty"`

	// Events is the final list the engine evaluates: buffered events
	// followed by the merged user update.
	Events []ir.Event `json:"events"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Events: []ir.Event{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records a step outcome.
func (r *Result) AddTrace(step int, action string, m tracker.Match, matched bool) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:       step,
		Action:     action,
		Matched:    matched,
		CriteriaID: m.CriteriaID,
	})
}
