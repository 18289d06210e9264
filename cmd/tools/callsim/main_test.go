package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCallsimReadsStdin(t *testing.T) {
	out, err := execute(t, "hello\nwait 3s\n", "--ai-name", "Riley", "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Riley: Hey! Good to hear from you!")
	assert.Contains(t, out, "You: hello")
	assert.Contains(t, out, "duration 00:13")
	assert.Contains(t, out, "alerts no")
}

func TestCallsimScriptFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.txt")
	require.NoError(t, os.WriteFile(path, []byte("banana split please\n"), 0o644))

	out, err := execute(t, "", "--script", path, "--code-word", "banana", "--format", "json", "--settle", "0s")
	require.NoError(t, err)

	var res struct {
		Notifications []map[string]any `json:"notifications"`
		Summary       struct {
			HasAlerts bool `json:"hasAlerts"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Notifications, 2)
	assert.True(t, res.Summary.HasAlerts)
}

func TestCallsimRejectsBadScript(t *testing.T) {
	_, err := execute(t, "toggle lights\n")
	assert.ErrorContains(t, err, "unknown control")

	_, err = execute(t, "", "--script", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "open script")
}
