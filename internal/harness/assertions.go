package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/criteria/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Step outcomes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, event := range e.Trace {
			outcome := "no match"
			if event.Matched {
				outcome = "match " + event.CriteriaID
			}
			fmt.Fprintf(&buf, "  [%d] %s: %s\n", event.Step, event.Action, outcome)
		}
	}

	return buf.String()
}

func assertMatched(result *Result, assertion Assertion) error {
	if result.Match != nil && result.Match.CriteriaID == assertion.CriteriaID {
		return nil
	}
	actual := "no match"
	if result.Match != nil {
		actual = fmt.Sprintf("matched %q", result.Match.CriteriaID)
	}
	return &AssertionError{
		Type:     AssertMatched,
		Expected: fmt.Sprintf("matched %q", assertion.CriteriaID),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

func assertNoMatch(result *Result) error {
	if result.Match == nil {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoMatch,
		Expected: "no match",
		Actual:   fmt.Sprintf("matched %q", result.Match.CriteriaID),
		Trace:    result.Trace,
	}
}

// assertEventCount counts evaluated events, optionally of one type.
func assertEventCount(result *Result, assertion Assertion) error {
	count := 0
	for _, event := range result.Events {
		if assertion.EventType == "" || ir.EventTypeOf(event) == assertion.EventType {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}

	what := "events"
	if assertion.EventType != "" {
		what = assertion.EventType + " events"
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d %s", assertion.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Trace:    result.Trace,
	}
}

// assertEventContains checks that some event of the given type carries
// every expected field (subset match). Extra fields are ignored.
func assertEventContains(result *Result, assertion Assertion) error {
	expected, err := convertFields(assertion.Fields)
	if err != nil {
		return fmt.Errorf("event_contains: %w", err)
	}

	for _, event := range result.Events {
		if ir.EventTypeOf(event) != assertion.EventType {
			continue
		}
		if containsFields(event, expected) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s event with fields %v", assertion.EventType, assertion.Fields),
		Actual:   "not found",
		Trace:    result.Trace,
	}
}

// containsFields reports whether actual holds every key of expected with
// an equal value. Numbers compare by value, so 3 and 3.0 are equal.
func containsFields(actual, expected ir.IRObject) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(actual, expected ir.IRValue) bool {
	if a, ok := numeric(actual); ok {
		e, ok := numeric(expected)
		return ok && a == e
	}
	switch exp := expected.(type) {
	case ir.IRObject:
		act, ok := actual.(ir.IRObject)
		return ok && len(act) == len(exp) && containsFields(act, exp)
	case ir.IRArray:
		act, ok := actual.(ir.IRArray)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return actual == expected
	}
}

func numeric(v ir.IRValue) (float64, bool) {
	switch n := v.(type) {
	case ir.IRInt:
		return float64(n), true
	case ir.IRFloat:
		return float64(n), true
	}
	return 0, false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertMatched:
			err = assertMatched(result, assertion)
		case AssertNoMatch:
			err = assertNoMatch(result)
		case AssertEventCount:
			err = assertEventCount(result, assertion)
		case AssertEventContains:
			err = assertEventContains(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
