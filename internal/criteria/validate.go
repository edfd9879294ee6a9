package criteria

import (
	"fmt"
	"regexp"

	"github.com/roach88/criteria/internal/ir"
)

// Warning codes reported by Validate.
const (
	CodeUnknownCombinator = "E101"
	CodeMissingEventType  = "E102"
	CodeUnknownEventType  = "E103"
	CodeUnknownComparator = "E104"
	CodeEmptyField        = "E105"
	CodeNegativeMinMatch  = "E106"
	CodeAmbiguousNode     = "E107"
	CodeEmptyNode         = "E108"
	CodeInvalidRegex      = "E109"
	CodeEventTypeMismatch = "E110"
)

// Warning describes one suspicious construct in a criteria tree.
type Warning struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s", w.Code, w.Path, w.Message)
}

// ValidationResult contains the warnings found in one criteria.
type ValidationResult struct {
	// Clean is true when no warnings were found.
	Clean bool

	// Warnings in tree walk order. Empty when Clean is true.
	Warnings []Warning
}

// Validate checks a criteria tree for constructs that can never match or
// that evaluate differently than they read. Warnings are informational:
// the evaluator handles every construct reported here (usually by failing
// the affected node).
//
// Validate is a pure function with no side effects.
func Validate(c Criteria) ValidationResult {
	v := &validator{warnings: []Warning{}}
	v.validateNode(c.Query, keySearchQuery)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []Warning
}

func (v *validator) addWarning(code, path, format string, args ...any) {
	v.warnings = append(v.warnings, Warning{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) validateNode(n QueryNode, path string) {
	switch {
	case n.IsCombinator():
		if n.SearchCombo != nil {
			v.addWarning(CodeAmbiguousNode, path, "node has both searchQueries and searchCombo; searchCombo is ignored")
		}
		if _, ok := n.Combinator.Canonical(); !ok {
			v.addWarning(CodeUnknownCombinator, path, "unknown combinator %q; node is evaluated as a leaf", n.Combinator)
			if n.SearchCombo != nil {
				v.validateLeaf(n, path)
			}
			return
		}
		for i, child := range n.SearchQueries {
			v.validateNode(child, fmt.Sprintf("%s.%s[%d]", path, keySearchQueries, i))
		}

	case n.SearchCombo != nil:
		v.validateLeaf(n, path)

	default:
		v.addWarning(CodeEmptyNode, path, "node has neither a combinator with searchQueries nor a searchCombo; it never matches")
	}
}

func (v *validator) validateLeaf(n QueryNode, path string) {
	switch {
	case n.EventType == "":
		v.addWarning(CodeMissingEventType, path, "leaf has no dataType; it never matches")
	case !ir.IsKnownEventType(n.EventType):
		v.addWarning(CodeUnknownEventType, path, "unknown dataType %q", n.EventType)
	}

	if n.MinMatch < 0 {
		v.addWarning(CodeNegativeMinMatch, path, "minMatch %d is negative and treated as 1", n.MinMatch)
	}

	comboPath := path + "." + keySearchCombo
	if _, ok := n.SearchCombo.Combinator.Canonical(); !ok || n.SearchCombo.Combinator == CombinatorNot {
		v.addWarning(CodeUnknownCombinator, comboPath, "searchCombo combinator %q is not And or Or; treated as And", n.SearchCombo.Combinator)
	}

	for i, q := range n.SearchCombo.SearchQueries {
		v.validateFieldQuery(q, n.EventType, fmt.Sprintf("%s.%s[%d]", comboPath, keySearchQueries, i))
	}
}

func (v *validator) validateFieldQuery(q FieldQuery, leafType, path string) {
	if q.Field == "" {
		v.addWarning(CodeEmptyField, path, "field is empty; it never matches")
	}

	comparator, ok := q.Comparator.Canonical()
	if !ok {
		v.addWarning(CodeUnknownComparator, path, "unknown comparatorType %q; it never matches", q.Comparator)
	}

	if comparator == MatchesRegex {
		for _, pattern := range q.Operands() {
			if _, err := regexp.Compile(pattern); err != nil {
				v.addWarning(CodeInvalidRegex, path, "invalid pattern %q: %v", pattern, err)
			}
		}
	}

	if q.EventType != "" && leafType != "" && q.EventType != leafType {
		v.addWarning(CodeEventTypeMismatch, path, "field dataType %q differs from leaf dataType %q; the leaf's type is used", q.EventType, leafType)
	}
}
