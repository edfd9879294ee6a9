package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/tracker"
)

// Snapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Match        *tracker.Match
	Events       []ir.Event
}

// NewSnapshot builds a snapshot of result under the given scenario name.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Match:        result.Match,
		Events:       result.Events,
	}
}

// toIR converts the snapshot to an IR object for canonical JSON
// serialization. ir.MarshalCanonical only handles IR types and primitives.
func (s Snapshot) toIR() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.IRObject{
			"step":    ir.IRInt(event.Step),
			"action":  ir.IRString(event.Action),
			"matched": ir.IRBool(event.Matched),
		}
		if event.CriteriaID != "" {
			obj["criteria_id"] = ir.IRString(event.CriteriaID)
		}
		trace[i] = obj
	}

	events := make(ir.IRArray, len(s.Events))
	for i, event := range s.Events {
		events[i] = event
	}

	out := ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
		"events":        events,
	}
	if s.Match != nil {
		out["match"] = ir.IRObject{
			"criteria_id": ir.IRString(s.Match.CriteriaID),
			"user_id":     ir.IRString(s.Match.UserID),
		}
	}
	return out
}

// MarshalCanonical renders the snapshot as RFC 8785 canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toIR())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
