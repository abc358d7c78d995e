package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "sdk", "SimConnect.dll")
	second := filepath.Join(dir, "a", "SimConnect.dll")
	third := filepath.Join(dir, "b", "SimConnect.dll")
	for _, p := range []string{second, third} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("MZ"), 0o644))
	}

	var buf bytes.Buffer
	got := report(&buf, []string{missing, second, third})
	assert.Equal(t, second, got, "first existing candidate wins")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NOT FOUND: "+missing)
	assert.Contains(t, lines[1], "FOUND: "+second)
	assert.Contains(t, lines[2], "FOUND: "+third)
}

func TestReport_NoCandidates(t *testing.T) {
	var buf bytes.Buffer
	assert.Empty(t, report(&buf, nil))
	assert.Contains(t, buf.String(), "no candidate")
}
