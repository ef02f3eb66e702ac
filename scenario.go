package flowbench

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a named pipeline configuration loaded from YAML. A minimal
// file needs only a name and a team; everything else falls back to the
// reference defaults.
//
//	name: midsize-org
//	team_composition:
//	  senior: 3
//	  mid: 5
//	  junior: 2
//	cost_per_seat: 30
//	feature_value: 10000
//	average_salary: 120000
//	test_automation: 0.5
//	deployment_frequency: weekly
type Scenario struct {
	Name                string          `yaml:"name"`
	TeamSize            int             `yaml:"team_size"` // 0 means derive from team_composition
	Team                TeamComposition `yaml:"team_composition"`
	CostPerSeat         float64         `yaml:"cost_per_seat"`
	FeatureValue        float64         `yaml:"feature_value"`
	AverageSalary       float64         `yaml:"average_salary"`
	TestAutomation      float64         `yaml:"test_automation"`
	DeploymentFrequency string          `yaml:"deployment_frequency"`

	// Optional per-stage overrides of the reference WIP limits and batch
	// sizes, keyed by stage name.
	WIPLimits  map[string]int `yaml:"wip_limits"`
	BatchSizes map[string]int `yaml:"batch_sizes"`
}

// EffectiveTeamSize returns TeamSize, or the composition total when
// TeamSize is left at zero.
func (s Scenario) EffectiveTeamSize() int {
	if s.TeamSize > 0 {
		return s.TeamSize
	}
	return s.Team.Total()
}

// Validate checks the scenario for a name, a non-empty team, and in-range
// economics.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Value: 0, Expected: "non-empty scenario name"}
	}
	if s.EffectiveTeamSize() <= 0 {
		return &ValidationError{Field: "team_size", Value: float64(s.TeamSize), Expected: "team_size or team_composition yielding > 0"}
	}
	if err := ValidateNonNegative(s.CostPerSeat, "cost_per_seat"); err != nil {
		return err
	}
	if err := ValidatePositive(s.FeatureValue, "feature_value"); err != nil {
		return err
	}
	if err := ValidateNonNegative(s.AverageSalary, "average_salary"); err != nil {
		return err
	}
	return ValidateRatio(s.TestAutomation, "test_automation")
}

// Pipeline builds the reference pipeline this scenario describes, with any
// per-stage WIP and batch overrides applied before construction.
func (s Scenario) Pipeline() (*DeliveryPipeline, error) {
	freq := s.DeploymentFrequency
	if freq == "" {
		freq = "weekly"
	}

	cfg := StandardPipelineConfig(s.EffectiveTeamSize(), s.TestAutomation, DeploymentFrequency(freq))
	for name, limit := range s.WIPLimits {
		stage := Stage(name)
		if _, ok := cfg.WIPLimits[stage]; !ok {
			return nil, fmt.Errorf("scenario %s: wip_limits names unknown stage %q", s.Name, name)
		}
		cfg.WIPLimits[stage] = limit
	}
	for name, batch := range s.BatchSizes {
		stage := Stage(name)
		if _, ok := cfg.BatchSizes[stage]; !ok {
			return nil, fmt.Errorf("scenario %s: batch_sizes names unknown stage %q", s.Name, name)
		}
		cfg.BatchSizes[stage] = batch
	}
	return NewDeliveryPipeline(cfg)
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// LoadScenarioDir loads every .yaml/.yml file in dir, sorted by filename so
// batch runs are deterministic.
func LoadScenarioDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// FindScenario returns the named scenario from the list. The error for an
// unknown name lists what is available.
func FindScenario(scenarios []Scenario, name string) (Scenario, error) {
	available := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
		available = append(available, s.Name)
	}
	sort.Strings(available)
	return Scenario{}, fmt.Errorf("unknown scenario %q, available: %s",
		name, strings.Join(available, ", "))
}
