package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/todos"
)

type harness struct {
	t    *testing.T
	dir  string
	args []string
}

func newHarness(t *testing.T, backend string) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	dir := t.TempDir()
	path := dir
	if backend == kv.BackendSQLite {
		path = filepath.Join(dir, "tada.sqlite")
	}
	return &harness{t: t, dir: dir, args: []string{"--backend", backend, "--path", path, "--theme", "mono"}}
}

func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code = run(append(append([]string{}, h.args...), args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run(args...)
	require.Equal(h.t, 0, code, "stderr: %s", errOut)
	return out
}

func TestAddListToggleRemove(t *testing.T) {
	for _, backend := range []string{kv.BackendFile, kv.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, backend)

			assert.Contains(t, h.mustRun("add", "Buy", "milk"), "added")
			h.mustRun("add", "Walk dog")
			h.mustRun("add", "  Read  ")

			out := h.mustRun("ls")
			assert.Contains(t, out, " 1. [ ] Buy milk")
			assert.Contains(t, out, " 2. [ ] Walk dog")
			assert.Contains(t, out, " 3. [ ] Read")

			assert.Contains(t, h.mustRun("done", "2"), "toggled")
			out = h.mustRun("ls")
			assert.Contains(t, out, " 2. [x] Walk dog")
			assert.Contains(t, out, "x 1  - 2  Total 3")

			out = h.mustRun("ls", "--filter", "active")
			assert.Contains(t, out, " 1. [ ] Buy milk")
			assert.Contains(t, out, " 3. [ ] Read")
			assert.NotContains(t, out, "Walk dog")

			out = h.mustRun("ls", "--filter", "completed")
			assert.Contains(t, out, " 2. [x] Walk dog")
			assert.NotContains(t, out, "Buy milk")

			h.mustRun("rm", "1")
			out = h.mustRun("ls")
			assert.NotContains(t, out, "Buy milk")
			assert.Contains(t, out, " 1. [x] Walk dog")
		})
	}
}

func TestEditAndClear(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	h.mustRun("add", "one")
	h.mustRun("add", "two")

	assert.Contains(t, h.mustRun("edit", "1", "uno"), "renamed")
	h.mustRun("done", "2")
	assert.Contains(t, h.mustRun("clear"), "cleared 1 completed")

	out := h.mustRun("ls")
	assert.Contains(t, out, " 1. [ ] uno")
	assert.NotContains(t, out, "two")
}

func TestGroupedList(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	h.mustRun("add", "one")
	h.mustRun("add", "two")
	h.mustRun("done", "1")

	out := h.mustRun("ls", "--group")
	pending := strings.Index(out, "Pending")
	done := strings.Index(out, "Done")
	require.True(t, pending >= 0 && done > pending)
	assert.Less(t, strings.Index(out, "two"), done)
	assert.Greater(t, strings.Index(out, "one"), done)
}

func TestRefsByID(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	h.mustRun("add", "one")

	store := todos.New(mustFile(t, h.dir), todos.DefaultKey)
	id := store.Items()[0].ID
	require.NoError(t, store.Close())

	h.mustRun("done", id)
	h.mustRun("edit", id[:len(id)-2], "renamed")

	out := h.mustRun("ls", "--ids")
	assert.Contains(t, out, "[x] renamed")
	assert.Contains(t, out, id)
}

func TestPersistsAsJSONUnderKey(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	h.mustRun("--key", "work", "add", "ship it")

	b, err := os.ReadFile(filepath.Join(h.dir, "work.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"title":"ship it"`)
	assert.Contains(t, string(b), `"completed":false`)

	// default key is a separate list
	assert.Contains(t, h.mustRun("ls"), "no items")
}

func TestCorruptedStorageStillWorks(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "todos-v1.json"), []byte("invalid json"), 0o644))

	code, out, errOut := h.run("ls")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "no items")
	assert.Contains(t, errOut, "load todos")
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	h.mustRun("add", "one")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty title", []string{"add", "   "}, "empty title"},
		{"missing title", []string{"add"}, "usage: todo add"},
		{"index out of range", []string{"done", "5"}, "index out of range: have 1, got 5"},
		{"unknown ref", []string{"rm", "nope"}, "no item matches"},
		{"bad filter", []string{"ls", "--filter", "done"}, "unknown filter"},
		{"unknown flag", []string{"ls", "--bogus"}, "unknown flag"},
		{"unknown subcommand", []string{"frobnicate"}, "unknown subcommand: frobnicate"},
		{"edit blank", []string{"edit", "1", " "}, "empty title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := h.run(tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, errOut, tt.want)
		})
	}

	code, _, errOut := h.run("--backend", "redis", "ls")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown storage backend")

	code, out, errOut := h.run("--key", "a/b", "add", "x")
	assert.Equal(t, 2, code)
	assert.NotContains(t, out, "added")
	assert.Contains(t, errOut, "invalid key")

	t.Setenv("TADA_KEY", "..")
	code, _, errOut = h.run("ls")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid key")
}

func TestRuntimeErrorExitsOne(t *testing.T) {
	h := newHarness(t, kv.BackendFile)
	code, _, errOut := h.run("--config", filepath.Join(h.dir, "missing.toml"), "ls")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing.toml")
}

func mustFile(t *testing.T, dir string) kv.Store {
	t.Helper()
	f, err := kv.NewFile(dir)
	require.NoError(t, err)
	return f
}

func TestMemoryBackendStartsEmptyEachRun(t *testing.T) {
	h := newHarness(t, kv.BackendMemory)
	h.mustRun("add", "gone")
	assert.Contains(t, h.mustRun("ls"), "no items")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
