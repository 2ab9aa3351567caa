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

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"rgssad"}, args...))
	return stdout.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

var tree = map[string]string{
	"Data/Actors.rvdata2":   "actors",
	"Data/Map001.rvdata2":   strings.Repeat("map", 100),
	"Graphics/System/a.png": "png",
}

func TestPackListExtract(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".rgssad", ".rgss3a"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			src := writeTree(t, tree)
			archive := filepath.Join(t.TempDir(), "Game"+ext)
			out := filepath.Join(t.TempDir(), "out")

			stdout, err := run(t, "pack", src, archive)
			require.NoError(t, err)
			assert.Contains(t, stdout, "3 files")

			stdout, err = run(t, "list", "--digest", archive)
			require.NoError(t, err)
			assert.Contains(t, stdout, `Data\Actors.rvdata2`)
			assert.Contains(t, stdout, "sha256:")

			stdout, err = run(t, "extract", "--out", out, archive)
			require.NoError(t, err)
			assert.Contains(t, stdout, "3 written, 0 skipped, 0 failed")

			for name, body := range tree {
				got, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(name)))
				require.NoError(t, err)
				assert.Equal(t, body, string(got), name)
			}

			stdout, err = run(t, "extract", "--out", out, archive)
			require.NoError(t, err)
			assert.Contains(t, stdout, "0 written, 3 skipped")
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	archive := filepath.Join(t.TempDir(), "Game.rgss2a")
	_, err := run(t, "pack", "--revision", "3", writeTree(t, tree), archive)
	require.NoError(t, err)

	stdout, err := run(t, "detect", archive)
	require.NoError(t, err)
	assert.Contains(t, stdout, "extension: VX (revision v1)")
	assert.Contains(t, stdout, "header:    revision v3")
	assert.Contains(t, stdout, "the header is used")
}

func TestExport(t *testing.T) {
	t.Parallel()

	archive := filepath.Join(t.TempDir(), "Game.rgssad")
	_, err := run(t, "pack", writeTree(t, tree), archive)
	require.NoError(t, err)

	tarPath := filepath.Join(t.TempDir(), "game.tar.zst")
	stdout, err := run(t, "export", "--zstd", "--out", tarPath, archive)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 entries")

	info, err := os.Stat(tarPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestFailureLoggedToFile(t *testing.T) {
	t.Parallel()

	bogus := filepath.Join(t.TempDir(), "Game.rgssad")
	require.NoError(t, os.WriteFile(bogus, []byte("not an archive"), 0o644))
	logFile := filepath.Join(t.TempDir(), "rgssad.log")

	_, err := run(t, "--log-file", logFile, "list", bogus)
	require.Error(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "command failed", record["msg"])
	assert.Equal(t, "list", record["command"])
	assert.Contains(t, record["error"], "signature mismatch")
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	_, err := run(t, "list")
	require.Error(t, err)

	_, err = run(t, "--log-level", "loud", "list", "x")
	require.Error(t, err)

	_, err = run(t, "pack", t.TempDir(), filepath.Join(t.TempDir(), "game.zip"))
	require.Error(t, err)
}
