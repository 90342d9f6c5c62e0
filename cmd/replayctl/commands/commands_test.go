package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brennhill/replayverify/internal/session"
)

func writeSessionFile(t *testing.T, dir string) string {
	t.Helper()
	s := &session.Session{
		SessionID: "smoke",
		Interactions: []session.Interaction{
			{
				RequestHash: "h1",
				Request:     session.Request{Method: "GET", Path: "/api/products/1"},
				Response:    session.Response{StatusCode: 200, Headers: map[string]string{"Content-Type": "application/json"}, Body: map[string]any{"id": "1", "name": "widget"}},
			},
		},
	}
	path := filepath.Join(dir, "session.json")
	require.NoError(t, session.Save(path, s))
	return path
}

func writeContractFile(t *testing.T, dir string) string {
	t.Helper()
	doc := `{"paths":{"/api/products/:id":{"get":{"responses":{"200":{"content":{"application/json":{"example":{"id":"{{request.params.id}}","name":"widget"}}}}}}}}}`
	path := filepath.Join(dir, "contract.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestReplayCommandEndToEndCompatible(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSessionFile(t, dir)
	contractPath := writeContractFile(t, dir)
	outPath := filepath.Join(dir, "report.json")

	root := Root()
	root.SetArgs([]string{
		"replay", sessionPath,
		"--contract", contractPath,
		"--output", outPath,
		"--format", "json",
	})
	var stderr bytes.Buffer
	root.SetErr(&stderr)

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	result := parsed["result"].(map[string]any)
	summary := result["summary"].(map[string]any)
	assert.InDelta(t, 100.0, summary["compatibilityScore"], 0.01)
}

func TestReplayCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSessionFile(t, dir)

	root := Root()
	root.SetArgs([]string{"replay", sessionPath, "--format", "xml"})
	var stderr bytes.Buffer
	root.SetOut(&stderr)
	root.SetErr(&stderr)

	err := root.Execute()
	assert.Error(t, err)
}

func TestSessionShowCommandPrintsMetadata(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSessionFile(t, dir)

	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"session", "show", sessionPath})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sessionId:   smoke")
}

func TestSessionListCommandPrintsInteractions(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSessionFile(t, dir)

	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"session", "list", sessionPath})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "/api/products/1")
}

func TestTagCommandRequiresTagsFlag(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSessionFile(t, dir)

	root := Root()
	root.SetArgs([]string{"tag", sessionPath})
	err := root.Execute()
	assert.Error(t, err)
}

func TestTagCommandRetagsAndPersists(t *testing.T) {
	dir := t.TempDir()
	sessionPath := writeSessionFile(t, dir)

	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"tag", sessionPath, "--tags", "regression,smoke"})
	require.NoError(t, root.Execute())

	reloaded, err := session.Load(sessionPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"regression", "smoke"}, reloaded.Interactions[0].Tags)
}
