package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/harness"
)

// writeScenarios creates a scenarios directory with a passing and,
// optionally, a failing scenario.
func writeScenarios(t *testing.T, withFailure bool) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))

	criteria, err := filepath.Abs("testdata/signup.json")
	require.NoError(t, err)

	pass := `name: signup_promotes
description: "signup matches criteria 7"
criteria: ` + criteria + `
steps:
  - action: track
    name: signup
    expect: { match: "7" }
assertions:
  - type: matched
    criteria_id: "7"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "signup.yaml"), []byte(pass), 0644))

	if withFailure {
		fail := `name: browse_promotes
description: "wrongly expects browsing to match"
criteria: ` + criteria + `
steps:
  - action: track
    name: browse
    expect: { match: "7" }
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "browse.yaml"), []byte(fail), 0644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(t, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)
}

func TestTestCommandPassing(t *testing.T) {
	dir := writeScenarios(t, false)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ signup_promotes\n")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := writeScenarios(t, true)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ browse_promotes\n")
	assert.Contains(t, stdout, `expected match "7", got no match`)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeScenarios(t, true)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, dir, "--filter", "sign*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 total")
	assert.NotContains(t, stdout, "browse_promotes")
}

func TestTestCommandJSON(t *testing.T) {
	dir := writeScenarios(t, true)

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(t, cmd, dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)

	// Files are visited in sorted order: browse.yaml, then signup.yaml.
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "browse_promotes", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.True(t, resp.Data.Scenarios[1].Pass)
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := writeScenarios(t, false)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ signup_promotes (golden updated)")

	goldenPath := harness.GoldenPath(filepath.Join(dir, "signup.yaml"), "signup_promotes")
	_, err = os.Stat(goldenPath)
	require.NoError(t, err)

	cmd = NewTestCommand(&RootOptions{Format: "text"})
	_, _, err = executeCommand(t, cmd, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err = executeCommand(t, cmd, dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "Golden file mismatch")
}

func TestTestCommandBadScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(t, cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "invalid scenario: description is required")
}
