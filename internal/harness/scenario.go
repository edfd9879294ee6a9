package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/ir"
)

// Scenario defines a visitor scenario: a criteria document, a sequence of
// tracking steps, and assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Criteria is the path of the criteria document cached before the
	// first step. Relative paths are resolved against the scenario file.
	// Empty means no criteria are cached until a fetch step.
	Criteria string `yaml:"criteria,omitempty"`

	// Consent is the initial tracking consent. Defaults to true.
	Consent *bool `yaml:"consent,omitempty"`

	// EventThreshold caps the buffer. Zero means the tracker default.
	EventThreshold int `yaml:"event_threshold,omitempty"`

	// UserID is the id given to a promoted visitor.
	// If empty, defaults to "test-user-default".
	UserID string `yaml:"user_id,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one tracking call. Which fields apply depends on Action.
type Step struct {
	Action     string         `yaml:"action"`
	Name       string         `yaml:"name,omitempty"`
	DataFields map[string]any `yaml:"data_fields,omitempty"`
	Fields     map[string]any `yaml:"fields,omitempty"`
	Total      float64        `yaml:"total,omitempty"`
	Items      []ItemSpec     `yaml:"items,omitempty"`
	Token      string         `yaml:"token,omitempty"`
	Consent    *bool          `yaml:"consent,omitempty"`
	Criteria   string         `yaml:"criteria,omitempty"`

	// Expect checks the step's outcome. If nil, any outcome is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ItemSpec is a commerce item as written in a scenario.
type ItemSpec struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Price       float64        `yaml:"price"`
	Quantity    int64          `yaml:"quantity"`
	SKU         string         `yaml:"sku,omitempty"`
	Description string         `yaml:"description,omitempty"`
	URL         string         `yaml:"url,omitempty"`
	ImageURL    string         `yaml:"image_url,omitempty"`
	Categories  []string       `yaml:"categories,omitempty"`
	DataFields  map[string]any `yaml:"data_fields,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Match is the criteria id the step should report.
	Match string `yaml:"match,omitempty"`

	// NoMatch requires the step to report no match.
	NoMatch bool `yaml:"no_match,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "matched": the visitor was promoted by CriteriaID
	// - "no_match": the visitor was not promoted
	// - "event_count": Count events (of EventType, if set) are evaluated
	// - "event_contains": an event of EventType has Fields (subset match)
	Type string `yaml:"type"`

	CriteriaID string         `yaml:"criteria_id,omitempty"`
	EventType  string         `yaml:"event_type,omitempty"`
	Count      int            `yaml:"count,omitempty"`
	Fields     map[string]any `yaml:"fields,omitempty"`
}

// Step action constants.
const (
	ActionTrack             = "track"
	ActionPurchase          = "purchase"
	ActionUpdateCart        = "update_cart"
	ActionTokenRegistration = "token_registration"
	ActionUpdateUser        = "update_user"
	ActionConsent           = "consent"
	ActionFetch             = "fetch"
	ActionEvaluate          = "evaluate"
)

// Assertion type constants.
const (
	AssertMatched       = "matched"
	AssertNoMatch       = "no_match"
	AssertEventCount    = "event_count"
	AssertEventContains = "event_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Criteria paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	scenario.Criteria = resolvePath(baseDir, scenario.Criteria)
	for i := range scenario.Steps {
		scenario.Steps[i].Criteria = resolvePath(baseDir, scenario.Steps[i].Criteria)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. Paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.EventThreshold < 0 {
		return fmt.Errorf("event_threshold must not be negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.Action {
	case ActionTrack:
		if step.Name == "" {
			return fmt.Errorf("track requires name")
		}
	case ActionPurchase, ActionUpdateCart:
		if len(step.Items) == 0 {
			return fmt.Errorf("%s requires items", step.Action)
		}
	case ActionTokenRegistration:
		if step.Token == "" {
			return fmt.Errorf("token_registration requires token")
		}
	case ActionUpdateUser:
		if len(step.Fields) == 0 {
			return fmt.Errorf("update_user requires fields")
		}
	case ActionConsent:
		if step.Consent == nil {
			return fmt.Errorf("consent requires consent")
		}
	case ActionFetch:
		if step.Criteria == "" {
			return fmt.Errorf("fetch requires criteria")
		}
	case ActionEvaluate:
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}

	if step.Expect != nil && step.Expect.Match != "" && step.Expect.NoMatch {
		return fmt.Errorf("expect cannot set both match and no_match")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertMatched:
		if a.CriteriaID == "" {
			return fmt.Errorf("matched requires criteria_id")
		}
	case AssertNoMatch, AssertEventCount:
	case AssertEventContains:
		if a.EventType == "" {
			return fmt.Errorf("event_contains requires event_type")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// convertFields converts YAML-parsed values to an ir.IRObject.
func convertFields(fields map[string]any) (ir.IRObject, error) {
	if fields == nil {
		return nil, nil
	}
	v, err := ir.FromAny(fields)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("fields must be a mapping, got %T", v)
	}
	return obj, nil
}

// toItems converts scenario items to commerce items.
func toItems(specs []ItemSpec) ([]ir.Item, error) {
	items := make([]ir.Item, len(specs))
	for i, s := range specs {
		dataFields, err := convertFields(s.DataFields)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = ir.Item{
			ID:          s.ID,
			Name:        s.Name,
			Price:       s.Price,
			Quantity:    s.Quantity,
			SKU:         s.SKU,
			Description: s.Description,
			URL:         s.URL,
			ImageURL:    s.ImageURL,
			Categories:  s.Categories,
			DataFields:  dataFields,
		}
	}
	return items, nil
}
