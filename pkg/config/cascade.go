package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is a cost/capability bucket queries are routed to.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// Tiers lists all defined tiers in ascending cost order. The selector treats
// a gap in this set as a startup failure, never a runtime one.
func Tiers() []Tier {
	return []Tier{TierSimple, TierMedium, TierComplex}
}

// ParseTier normalizes a tier name. Unknown values return false.
func ParseTier(v string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(v))) {
	case TierSimple:
		return TierSimple, true
	case TierMedium:
		return TierMedium, true
	case TierComplex:
		return TierComplex, true
	default:
		return "", false
	}
}

// CascadeConfig holds routing, budget, rubric and reflection configuration.
// The core treats a loaded config as read-only for the process lifetime.
type CascadeConfig struct {
	Budget     BudgetConfig     `yaml:"budget"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Tiers      map[Tier]Profile `yaml:"tiers"`
	Rubric     []RubricItem     `yaml:"rubric"`
	Reflection ReflectionConfig `yaml:"reflection"`
}

// BudgetConfig bounds session spend.
type BudgetConfig struct {
	SessionLimitUSD float64 `yaml:"session_limit_usd"`
}

// ClassifierConfig holds the deterministic complexity rules. Rule content is
// configuration; only the rule ordering is fixed in code.
type ClassifierConfig struct {
	LongQueryWords int      `yaml:"long_query_words"`
	ComplexMarkers []string `yaml:"complex_markers"`
	SimpleMarkers  []string `yaml:"simple_markers"`
}

// Profile binds a tier to a concrete adapter, model and flat per-call cost.
type Profile struct {
	Adapter     string  `yaml:"adapter"`
	Model       string  `yaml:"model"`
	CostPerCall float64 `yaml:"cost_per_call"`
}

// RubricItem defines one compliance check. Exactly one of Check or Judge
// applies: Check names a deterministic in-process evaluator, Judge marks the
// item as model-evaluated using the reflection judge target.
type RubricItem struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Mandatory   bool     `yaml:"mandatory,omitempty"`
	Check       string   `yaml:"check,omitempty"`
	CheckArg    string   `yaml:"check_arg,omitempty"`
	Judge       bool     `yaml:"judge,omitempty"`
	Overrides   []string `yaml:"overrides,omitempty"`
}

// ReflectionConfig selects the generation and judge targets for the
// reflection loop.
type ReflectionConfig struct {
	Adapter       string `yaml:"adapter"`
	Model         string `yaml:"model"`
	JudgeAdapter  string `yaml:"judge_adapter,omitempty"`
	JudgeModel    string `yaml:"judge_model,omitempty"`
	MaxIterations int    `yaml:"max_iterations"`
}

// ConfigError marks a fatal configuration gap. The process must not start
// with one outstanding.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// LoadCascadeConfig reads cascade configuration from a YAML file.
func LoadCascadeConfig(path string) (*CascadeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg CascadeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyCascadeDefaults(&cfg)
	return &cfg, nil
}

// DefaultCascadeConfig returns the built-in configuration: Gemini for the
// cheap tiers, a premium model for the complex tier, and the enterprise
// documentation rubric.
func DefaultCascadeConfig() *CascadeConfig {
	cfg := &CascadeConfig{
		Budget: BudgetConfig{SessionLimitUSD: 10.0},
		Classifier: ClassifierConfig{
			LongQueryWords: 30,
			ComplexMarkers: []string{
				"explain", "analyze", "compare", "evaluate",
				"synthesize", "architecture", "design",
			},
			SimpleMarkers: []string{
				"what is", "when", "who", "where", "define",
				"list", "name", "how many",
			},
		},
		Tiers: map[Tier]Profile{
			TierSimple: {
				Adapter:     "google",
				Model:       "gemini-2.0-flash",
				CostPerCall: 0.001,
			},
			TierMedium: {
				Adapter:     "google",
				Model:       "gemini-2.0-pro",
				CostPerCall: 0.02,
			},
			TierComplex: {
				Adapter:     "openai",
				Model:       "gpt-5.2-pro",
				CostPerCall: 0.15,
			},
		},
		Rubric: []RubricItem{
			{
				ID:          "markdown_headers",
				Description: "Use clear H2 and H3 markdown headers",
				Mandatory:   true,
				Check:       "markdown_headers",
				Overrides:   []string{"format"},
			},
			{
				ID:          "short_paragraphs",
				Description: "Keep paragraphs under 3 lines",
				Check:       "max_paragraph_lines",
				CheckArg:    "3",
			},
			{
				ID:          "accuracy",
				Description: "Content is factually correct and addresses the query",
				Judge:       true,
			},
		},
		Reflection: ReflectionConfig{
			Adapter:       "google",
			Model:         "gemini-2.5-flash",
			MaxIterations: 3,
		},
	}

	applyCascadeDefaults(cfg)
	return cfg
}

func applyCascadeDefaults(cfg *CascadeConfig) {
	if cfg == nil {
		return
	}
	if cfg.Budget.SessionLimitUSD == 0 {
		cfg.Budget.SessionLimitUSD = 10.0
	}
	if cfg.Classifier.LongQueryWords == 0 {
		cfg.Classifier.LongQueryWords = 30
	}
	if cfg.Reflection.MaxIterations == 0 {
		cfg.Reflection.MaxIterations = 3
	}
	if cfg.Reflection.JudgeAdapter == "" {
		cfg.Reflection.JudgeAdapter = cfg.Reflection.Adapter
	}
	if cfg.Reflection.JudgeModel == "" {
		cfg.Reflection.JudgeModel = cfg.Reflection.Model
	}
}

// Validate checks the invariants the rest of the system assumes. A non-nil
// error here means the process must not start.
func (cfg *CascadeConfig) Validate() error {
	if cfg == nil {
		return &ConfigError{Field: "cascade", Reason: "missing configuration"}
	}
	if cfg.Budget.SessionLimitUSD <= 0 {
		return &ConfigError{Field: "budget.session_limit_usd", Reason: "must be positive"}
	}
	for _, tier := range Tiers() {
		profile, ok := cfg.Tiers[tier]
		if !ok {
			return &ConfigError{Field: fmt.Sprintf("tiers.%s", tier), Reason: "no profile registered"}
		}
		if profile.Adapter == "" || profile.Model == "" {
			return &ConfigError{Field: fmt.Sprintf("tiers.%s", tier), Reason: "adapter and model are required"}
		}
		if profile.CostPerCall <= 0 {
			return &ConfigError{Field: fmt.Sprintf("tiers.%s.cost_per_call", tier), Reason: "must be positive"}
		}
	}
	if len(cfg.Rubric) == 0 {
		return &ConfigError{Field: "rubric", Reason: "at least one item is required"}
	}
	seen := make(map[string]bool, len(cfg.Rubric))
	for i, item := range cfg.Rubric {
		if item.ID == "" {
			return &ConfigError{Field: fmt.Sprintf("rubric[%d].id", i), Reason: "is required"}
		}
		if seen[item.ID] {
			return &ConfigError{Field: fmt.Sprintf("rubric[%d].id", i), Reason: "duplicate id " + item.ID}
		}
		seen[item.ID] = true
		if item.Judge == (item.Check != "") {
			return &ConfigError{
				Field:  fmt.Sprintf("rubric[%d]", i),
				Reason: "exactly one of check or judge is required",
			}
		}
	}
	if cfg.Reflection.Adapter == "" || cfg.Reflection.Model == "" {
		return &ConfigError{Field: "reflection", Reason: "adapter and model are required"}
	}
	if hasJudgeItem(cfg.Rubric) && (cfg.Reflection.JudgeAdapter == "" || cfg.Reflection.JudgeModel == "") {
		return &ConfigError{Field: "reflection.judge_model", Reason: "required by judge rubric items"}
	}
	if cfg.Reflection.MaxIterations < 1 {
		return &ConfigError{Field: "reflection.max_iterations", Reason: "must be at least 1"}
	}
	return nil
}

func hasJudgeItem(items []RubricItem) bool {
	for _, item := range items {
		if item.Judge {
			return true
		}
	}
	return false
}
