package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/gesture"
)

// Scenario is a scripted pointer session with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Gesture overrides classifier thresholds. Zero fields keep defaults.
	Gesture *GestureOverrides `yaml:"gesture,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// GestureOverrides adjusts the classifier for a scenario.
type GestureOverrides struct {
	MinDistance float64 `yaml:"min_distance,omitempty"`
	MinVelocity float64 `yaml:"min_velocity,omitempty"`
	TouchSlop   float64 `yaml:"touch_slop,omitempty"`
}

// Config returns the classifier configuration for the scenario.
func (s *Scenario) Config() gesture.Config {
	cfg := gesture.DefaultConfig()
	if s.Gesture == nil {
		return cfg
	}
	if s.Gesture.MinDistance > 0 {
		cfg.MinDistance = s.Gesture.MinDistance
	}
	if s.Gesture.MinVelocity > 0 {
		cfg.MinVelocity = s.Gesture.MinVelocity
	}
	if s.Gesture.TouchSlop > 0 {
		cfg.TouchSlop = s.Gesture.TouchSlop
	}
	return cfg
}

// Step sets exactly one of its fields.
type Step struct {
	Attach      string        `yaml:"attach,omitempty"`
	Detach      bool          `yaml:"detach,omitempty"`
	Samples     []SampleStep  `yaml:"samples,omitempty"`
	Record      *RecordStep   `yaml:"record,omitempty"`
	Identify    *IdentifyStep `yaml:"identify,omitempty"`
	Clear       bool          `yaml:"clear,omitempty"`
	FailUploads int           `yaml:"fail_uploads,omitempty"`
	Flush       bool          `yaml:"flush,omitempty"`
}

// SampleStep is one pointer sample. At is milliseconds after the start.
type SampleStep struct {
	Action   string  `yaml:"action"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Pressure float64 `yaml:"pressure,omitempty"`
	At       int64   `yaml:"at"`
}

// RecordStep submits an already classified gesture.
type RecordStep struct {
	Kind      string  `yaml:"kind"`
	Screen    string  `yaml:"screen"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	EndX      float64 `yaml:"end_x,omitempty"`
	EndY      float64 `yaml:"end_y,omitempty"`
	Intensity float64 `yaml:"intensity"`
	At        int64   `yaml:"at"`
}

// IdentifyStep sets the identity and waits for the triggered flush.
type IdentifyStep struct {
	User  string `yaml:"user"`
	Token string `yaml:"token"`
}

// Assertion checks the final state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// Count is used by pending, upload_count and trace_count.
	Count int `yaml:"count,omitempty"`

	// Event is the trace event type for trace_count and trace_contains.
	Event string `yaml:"event,omitempty"`

	// Kind and Screen narrow trace_contains; Screen also selects the
	// heatmap screen.
	Kind   string `yaml:"kind,omitempty"`
	Screen string `yaml:"screen,omitempty"`

	// Points and Swipes are the expected heatmap sizes.
	Points int `yaml:"points,omitempty"`
	Swipes int `yaml:"swipes,omitempty"`
}

// Assertion type constants.
const (
	AssertPending       = "pending"
	AssertUploadCount   = "upload_count"
	AssertTraceCount    = "trace_count"
	AssertTraceContains = "trace_contains"
	AssertHeatmap       = "heatmap"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st Step) error {
	set := 0
	for _, on := range []bool{
		st.Attach != "", st.Detach, len(st.Samples) > 0, st.Record != nil,
		st.Identify != nil, st.Clear, st.FailUploads > 0, st.Flush,
	} {
		if on {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, set)
	}

	for j, s := range st.Samples {
		if _, err := gesture.ParseAction(s.Action); err != nil {
			return fmt.Errorf("steps[%d].samples[%d]: %w", index, j, err)
		}
		if s.At < 0 {
			return fmt.Errorf("steps[%d].samples[%d]: at must be non-negative", index, j)
		}
	}
	if r := st.Record; r != nil {
		if !event.ValidKinds[event.Kind(r.Kind)] {
			return fmt.Errorf("steps[%d].record: %w: %q", index, event.ErrUnknownKind, r.Kind)
		}
		if r.At < 0 {
			return fmt.Errorf("steps[%d].record: at must be non-negative", index)
		}
	}
	if st.Identify != nil && st.Identify.User == "" {
		return fmt.Errorf("steps[%d].identify: user is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPending, AssertUploadCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertHeatmap:
		if a.Screen == "" {
			return fmt.Errorf("assertions[%d]: screen is required for heatmap", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
