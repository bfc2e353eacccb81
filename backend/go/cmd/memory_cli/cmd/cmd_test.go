package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"MedMemory/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestAssessCommand(t *testing.T) {
	out, err := run(t, "assess", "--at", "2025-06-01", "我是男的，怀孕了")
	require.NoError(t, err)

	var got models.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.IsValid)
	assert.NotEmpty(t, got.Reason)
}

func TestTimeParseCommand(t *testing.T) {
	out, err := run(t, "time", "parse", "--at", "2025-06-01", "最近3天")
	require.NoError(t, err)

	var got models.TimeParse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Start.Equal(time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)))

	_, err = run(t, "time", "parse", "--at", "yesterday-ish", "最近3天")
	assert.Error(t, err)

	_, err = run(t, "time", "parse", "hello")
	assert.EqualError(t, err, "no time information found")
}

func TestDecideCommand(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	current := models.NewMedicationFact("metformin", "500mg", "bid", "oral", start, nil, "doctor")
	next := models.NewMedicationFact("metformin", "500mg", "bid", "oral", start.AddDate(0, 0, 4), nil, "doctor")

	out, err := run(t, "decide", "medication",
		"--current", writeJSON(t, dir, "current.json", current),
		"--next", writeJSON(t, dir, "next.json", next))
	require.NoError(t, err)

	var got decision
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, models.ActionUpdate, got.RuleAction)

	_, err = run(t, "decide", "allergy", "--current", "a", "--next", "b")
	assert.Error(t, err)
}

func TestDecideCommandFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	fact := func(start time.Time) map[string]interface{} {
		return map[string]interface{}{
			"code": "metformin", "dose": "500mg", "frequency": "bid", "route": "oral",
			"valid_start": start.Format(time.RFC3339), "provenance": "chat",
		}
	}
	start := time.Now().UTC().AddDate(0, 0, -20)

	out, err := run(t, "decide", "medication",
		"--current", writeJSON(t, dir, "current.json", fact(start)),
		"--next", writeJSON(t, dir, "next.json", fact(start.AddDate(0, 0, 4))))
	require.NoError(t, err)

	var got decision
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, models.ActionUpdate, got.Action)
	// base 0.2 + regimen 0.4 + overlap 0.3 + recency 0.05
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestIngestCommand(t *testing.T) {
	var received models.StatementRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statements", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":true,"action":"APPEND"}`))
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "ingest",
		"--subject", "p1", "--concept", "metformin", "--dose", "500mg", "--text", "taking metformin")
	require.NoError(t, err)
	assert.Contains(t, out, `"APPEND"`)
	assert.Equal(t, "p1", received.SubjectID)
	assert.Equal(t, models.KindMedication, received.Kind)
	assert.Equal(t, "metformin", received.ConceptOrCode)

	_, err = run(t, "--server", srv.URL, "ingest", "--concept", "metformin")
	assert.Error(t, err)
}

func TestListCommandReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/subjects/p1/medications" {
			_, _ = w.Write([]byte(`{"medications":[]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "list", "medications", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "medications")

	_, err = run(t, "--server", srv.URL, "list", "graph", "p1")
	assert.Error(t, err)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8090", normalizeBaseURL(":8090"))
	assert.Equal(t, "http://10.0.0.1:8090", normalizeBaseURL("10.0.0.1:8090"))
	assert.Equal(t, "https://memory.local", normalizeBaseURL("https://memory.local/"))
}
