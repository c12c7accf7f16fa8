package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eidetic/internal/chain"
)

// DefaultClock is the timestamp used when a scenario does not set one.
const DefaultClock int64 = 1700000000

// Scenario is a scripted attribute history.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Clock is the fixed timestamp given to every version.
	// Zero means DefaultClock.
	Clock int64 `yaml:"clock,omitempty"`

	// Steps run in order. Each step holds exactly one operation.
	Steps []Step `yaml:"steps"`
}

// Step is one operation of a scenario.
type Step struct {
	// Set names the attribute that receives Value.
	Set string `yaml:"set,omitempty"`

	// Value is the value for Set. Use an explicit null to append null.
	Value *yaml.Node `yaml:"value,omitempty"`

	// Unset names the attribute that receives null.
	Unset string `yaml:"unset,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
	Tamper *Tamper `yaml:"tamper,omitempty"`
}

// Expect checks model state. Either Attribute or Object must be given.
type Expect struct {
	Attribute string `yaml:"attribute,omitempty"`

	// Ordinal selects a historical value. Nil means the current value.
	Ordinal *int `yaml:"ordinal,omitempty"`

	// Value is the expected value of Attribute.
	Value *yaml.Node `yaml:"value,omitempty"`

	// Length is the expected chain length of Attribute, genesis included.
	Length *int `yaml:"length,omitempty"`

	// Object is the expected projection of current values.
	Object *yaml.Node `yaml:"object,omitempty"`
}

// Tamper fields.
const (
	FieldValue          = "value"
	FieldPreviousDigest = "previous_digest"
	FieldDigest         = "digest"
	FieldTimestamp      = "timestamp"
	FieldOrdinal        = "ordinal"
	FieldRewrite        = "rewrite" // new value with the entry's own digest recomputed
	FieldDelete         = "delete"
)

// Tamper edits one stored version and reloads the model.
type Tamper struct {
	Attribute string     `yaml:"attribute"`
	Ordinal   int        `yaml:"ordinal"`
	Field     string     `yaml:"field"`
	Value     *yaml.Node `yaml:"value,omitempty"`

	// Detect is the integrity code the reload must fail with.
	// Empty means the reload must succeed.
	Detect string `yaml:"detect,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Clock == 0 {
		scenario.Clock = DefaultClock
	}
	return &scenario, nil
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

	for i, step := range s.Steps {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step *Step) error {
	ops := 0
	for _, set := range []bool{step.Set != "", step.Unset != "", step.Expect != nil, step.Tamper != nil} {
		if set {
			ops++
		}
	}
	if ops != 1 {
		return fmt.Errorf("exactly one of set, unset, expect or tamper is required")
	}

	switch {
	case step.Set != "":
		if step.Value == nil {
			return fmt.Errorf("value is required for set")
		}
	case step.Value != nil:
		return fmt.Errorf("value is only allowed with set")
	case step.Expect != nil:
		return validateExpect(step.Expect)
	case step.Tamper != nil:
		return validateTamper(step.Tamper)
	}
	return nil
}

func validateExpect(e *Expect) error {
	if e.Object != nil {
		if e.Attribute != "" || e.Ordinal != nil || e.Value != nil || e.Length != nil {
			return fmt.Errorf("expect: object cannot be combined with attribute checks")
		}
		return nil
	}
	if e.Attribute == "" {
		return fmt.Errorf("expect: attribute or object is required")
	}
	if e.Value == nil && e.Length == nil {
		return fmt.Errorf("expect: value or length is required")
	}
	if e.Ordinal != nil && e.Value == nil {
		return fmt.Errorf("expect: ordinal requires value")
	}
	return nil
}

func validateTamper(t *Tamper) error {
	if t.Attribute == "" {
		return fmt.Errorf("tamper: attribute is required")
	}
	if t.Ordinal < 0 {
		return fmt.Errorf("tamper: ordinal must be non-negative")
	}

	switch t.Field {
	case FieldValue, FieldPreviousDigest, FieldDigest, FieldTimestamp, FieldOrdinal, FieldRewrite:
		if t.Value == nil {
			return fmt.Errorf("tamper: value is required for field %q", t.Field)
		}
	case FieldDelete:
		if t.Value != nil {
			return fmt.Errorf("tamper: value is not allowed for delete")
		}
	default:
		return fmt.Errorf("tamper: unknown field %q", t.Field)
	}

	switch chain.IntegrityErrorCode(t.Detect) {
	case "", chain.ErrCodeEmptyChain, chain.ErrCodeOrdinalMismatch, chain.ErrCodeInvalidDigest, chain.ErrCodeBrokenLink:
	default:
		return fmt.Errorf("tamper: unknown integrity code %q", t.Detect)
	}
	return nil
}
