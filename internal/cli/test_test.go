package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: passing
description: "A value is kept"
steps:
  - set: name
    value: Ada
  - expect:
      attribute: name
      value: Ada
`

const failingScenario = `name: failing
description: "A wrong expectation"
steps:
  - set: name
    value: Ada
  - expect:
      attribute: name
      value: Grace
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runTestCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "/nonexistent/scenarios")
	requireExitError(t, err, ExitCommandError, "")
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing", passingScenario)
	writeScenario(t, dir, "failing", failingScenario)

	out, err := runTestCommand(t, dir)
	requireExitError(t, err, ExitFailure, "")

	assert.Contains(t, out, "✓ passing")
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, `expected "Grace", got "Ada"`)
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing", passingScenario)
	writeScenario(t, dir, "failing", failingScenario)

	out, err := runTestCommand(t, dir, "--filter", "pass*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken", "name: broken\nunknown: true\n")

	out, err := runTestCommand(t, dir)
	requireExitError(t, err, ExitFailure, "")
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing", passingScenario)

	// --update writes the golden file
	out, err := runTestCommand(t, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "passing.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "passing"`)
	assert.Contains(t, string(golden), adaDigest)

	// Matching trace passes
	_, err = runTestCommand(t, dir)
	require.NoError(t, err)

	// A different trace fails the comparison
	writeScenario(t, dir, "passing", `name: passing
description: "Now with another value"
steps:
  - set: name
    value: Grace
`)
	out, err = runTestCommand(t, dir)
	requireExitError(t, err, ExitFailure, "")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing", passingScenario)
	writeScenario(t, dir, "failing", failingScenario)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	requireExitError(t, err, ExitFailure, "")

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	// The harness fixtures double as CLI fixtures, golden files included.
	out, err := runTestCommand(t, filepath.Join("..", "harness", "testdata"))
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "✓ profile-history")
	assert.Contains(t, out, "✓ tamper-detection")
}
