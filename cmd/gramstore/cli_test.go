package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithLogs(t, args...)
	return out, err
}

func executeWithLogs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewCLI()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "texts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "texts", "abc.txt"), []byte("abcabcabc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "texts", "xyz.txt"), []byte("xyz"), 0o644))
	return dir
}

var smallModel = []string{
	"--min-order", "2",
	"--max-order", "3",
	"--token-width", "1",
	"--hot-capacity", "4",
	"--cold-capacity", "64",
}

func TestRun(t *testing.T) {
	dir := writeCorpus(t)

	args := append([]string{"run", "--root", dir, "--prompt", "ab", "--max-chars", "10", "--pacing", "0"}, smallModel...)
	out, err := execute(t, append(args, "texts/abc.txt")...)
	require.NoError(t, err)
	assert.Equal(t, "abcabcabcab\n[completed]\n", out)
}

func TestRun_Candidates(t *testing.T) {
	dir := writeCorpus(t)

	args := append([]string{"run", "--root", dir, "--prompt", "ab", "--max-chars", "3", "--pacing", "0", "--candidates"}, smallModel...)
	out, err := execute(t, append(args, "texts/abc.txt")...)
	require.NoError(t, err)
	assert.Contains(t, out, "CANDIDATE")
	assert.Contains(t, out, `"bc"`)
	assert.Contains(t, out, "-> \"c\"\n")
	assert.Contains(t, out, "-> \"a\"\n")
	assert.True(t, strings.HasSuffix(out, "\nabca\n[completed]\n"), out)
}

func TestRun_UnresolvedPrompt(t *testing.T) {
	dir := writeCorpus(t)

	args := append([]string{"run", "--root", dir, "--prompt", "aq", "--pacing", "0"}, smallModel...)
	_, err := execute(t, append(args, "texts/abc.txt")...)
	require.Error(t, err)
}

func TestRun_MissingObject(t *testing.T) {
	dir := writeCorpus(t)

	args := append([]string{"run", "--root", dir, "--prompt", "ab"}, smallModel...)
	_, err := execute(t, append(args, "texts/missing.txt")...)
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	dir := writeCorpus(t)

	args := append([]string{"stats", "--root", dir}, smallModel...)
	out, err := execute(t, append(args, "texts/abc.txt", "texts/xyz.txt")...)
	require.NoError(t, err)
	assert.Contains(t, out, "ORDER")
	// abc: ab bc ca, xyz: xy yz
	assert.Contains(t, out, "5/64")
	assert.Contains(t, out, "vocabulary 6")
}

func TestStats_LogFormats(t *testing.T) {
	dir := writeCorpus(t)
	args := append([]string{"stats", "--root", dir, "--log-level", "info"}, smallModel...)

	_, logs, err := executeWithLogs(t, append(args, "--log-json", "texts/abc.txt")...)
	require.NoError(t, err)
	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		if rec["msg"] == "Training completed" {
			found = true
		}
	}
	assert.True(t, found, logs)

	_, logs, err = executeWithLogs(t, append(args, "texts/abc.txt")...)
	require.NoError(t, err)
	assert.Contains(t, logs, `msg="Training completed"`)
}

func TestList(t *testing.T) {
	dir := writeCorpus(t)

	out, err := execute(t, "list", "--root", dir, "texts")
	require.NoError(t, err)
	assert.Equal(t, "texts/abc.txt\ntexts/xyz.txt\n", out)
}

func TestUnknownSource(t *testing.T) {
	_, err := execute(t, "list", "--source", "ftp")
	require.ErrorContains(t, err, "unknown source")
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = parseLevel("loud")
	require.Error(t, err)
}
