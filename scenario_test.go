package flowbench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const midsizeScenarioYAML = `
name: midsize-org
team_composition:
  senior: 3
  mid: 5
  junior: 2
cost_per_seat: 30
feature_value: 10000
average_salary: 120000
test_automation: 0.5
deployment_frequency: weekly
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "midsize.yaml", midsizeScenarioYAML)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "midsize-org", s.Name)
	assert.Equal(t, TeamComposition{Senior: 3, Mid: 5, Junior: 2}, s.Team)
	assert.Equal(t, 10, s.EffectiveTeamSize(), "team size derived from composition")
	assert.Equal(t, 0.5, s.TestAutomation)
	assert.Equal(t, "weekly", s.DeploymentFrequency)
}

func TestLoadScenario_ExplicitTeamSizeWins(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "sized.yaml", `
name: explicit
team_size: 25
team_composition:
  mid: 5
feature_value: 5000
test_automation: 0.3
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 25, s.EffectiveTeamSize())
}

func TestLoadScenario_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "missing file")

	path := writeScenario(t, dir, "broken.yaml", "name: [unclosed")
	_, err = LoadScenario(path)
	assert.Error(t, err, "malformed yaml")

	path = writeScenario(t, dir, "noname.yaml", `
feature_value: 5000
team_size: 5
test_automation: 0.5
`)
	_, err = LoadScenario(path)
	assert.ErrorContains(t, err, "name")

	path = writeScenario(t, dir, "noteam.yaml", `
name: empty-team
feature_value: 5000
test_automation: 0.5
`)
	_, err = LoadScenario(path)
	assert.ErrorContains(t, err, "team_size")

	path = writeScenario(t, dir, "badratio.yaml", `
name: over-automated
team_size: 5
feature_value: 5000
test_automation: 1.5
`)
	_, err = LoadScenario(path)
	assert.ErrorContains(t, err, "test_automation")
}

func TestLoadScenarioDir_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b-second.yaml", `
name: second
team_size: 5
feature_value: 5000
test_automation: 0.5
`)
	writeScenario(t, dir, "a-first.yml", `
name: first
team_size: 5
feature_value: 5000
test_automation: 0.5
`)
	writeScenario(t, dir, "notes.txt", "not a scenario")

	scenarios, err := LoadScenarioDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2, "non-yaml files skipped")
	assert.Equal(t, "first", scenarios[0].Name, "sorted by filename")
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestFindScenario_UnknownListsAvailable(t *testing.T) {
	scenarios := []Scenario{{Name: "alpha"}, {Name: "beta"}}

	s, err := FindScenario(scenarios, "beta")
	require.NoError(t, err)
	assert.Equal(t, "beta", s.Name)

	_, err = FindScenario(scenarios, "gamma")
	require.Error(t, err)
	assert.ErrorContains(t, err, "gamma")
	assert.ErrorContains(t, err, "alpha, beta", "error names what is available")
}

func TestScenario_Pipeline(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "midsize.yaml", midsizeScenarioYAML)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	p, err := s.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, 10, p.TeamSize())

	result := p.Throughput(0.5)
	assert.Greater(t, result.ThroughputPerDay, 0.0)
}

func TestScenario_Pipeline_Overrides(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "tuned.yaml", `
name: tuned
team_size: 10
feature_value: 10000
test_automation: 0.5
wip_limits:
  coding: 4
batch_sizes:
  deployment: 2
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	p, err := s.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, 4, p.WIPLimit(StageCoding))
	assert.Equal(t, 2, p.BatchSize(StageDeployment))

	s.WIPLimits = map[string]int{"compiling": 3}
	_, err = s.Pipeline()
	assert.ErrorContains(t, err, "unknown stage", "overrides must name real stages")
}
