package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rgraph/internal/store"
)

// recordScenario runs the add gate scenario into a fresh event log.
func recordScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := writeScenario(t, dir, "add_gate.yaml", addGateScenario)
	dbPath := filepath.Join(dir, "trace.db")

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, path})
	require.NoError(t, cmd.Execute())
	return dbPath
}

func runTraceCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrace_Text(t *testing.T) {
	dbPath := recordScenario(t)

	out, err := runTraceCommand(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Timeline ===")
	assert.Contains(t, out, "arithmetic::add added -> Connected")
	assert.Contains(t, out, ".result = 3")
	assert.Contains(t, out, "Behaviour Events: 1")
	assert.Contains(t, out, "Instances:        1")
}

func TestTrace_JSON(t *testing.T) {
	dbPath := recordScenario(t)

	out, err := runTraceCommand(t, "json", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.Data.Timeline)
	assert.Equal(t, "behaviour", resp.Data.Timeline[0].Type)
	assert.Equal(t, len(resp.Data.Timeline), resp.Data.Stats.TotalEvents)

	for i := 1; i < len(resp.Data.Timeline); i++ {
		assert.Greater(t, resp.Data.Timeline[i].Seq, resp.Data.Timeline[i-1].Seq)
	}
}

func TestTrace_InstanceFilter(t *testing.T) {
	dbPath := recordScenario(t)

	out, err := runTraceCommand(t, "text", "--db", dbPath, "--instance", "no-such-instance")
	require.NoError(t, err)
	assert.Contains(t, out, "(no events)")
}

func TestTrace_MissingDatabase(t *testing.T) {
	_, err := runTraceCommand(t, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTrace_RequiresDB(t *testing.T) {
	_, err := runTraceCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestBuildTraceResult(t *testing.T) {
	entries := []store.TraceEntry{
		{Seq: 1, Behaviour: &store.BehaviourEvent{Seq: 1, InstanceID: "a", BehaviourType: "core::counter", Event: "added", State: "Connected"}},
		{Seq: 2, Property: &store.PropertyEvent{Seq: 2, InstanceID: "a", Property: "result", Value: 1.0}},
		{Seq: 3, Property: &store.PropertyEvent{Seq: 3, InstanceID: "b", Property: "value", Value: true}},
	}

	all := buildTraceResult(entries, "")
	assert.Equal(t, TraceStats{TotalEvents: 3, BehaviourEvents: 1, PropertyEvents: 2, Instances: 2, LastSeq: 3}, all.Stats)

	onlyA := buildTraceResult(entries, "a")
	assert.Len(t, onlyA.Timeline, 2)
	assert.Equal(t, int64(2), onlyA.Stats.LastSeq)
}
