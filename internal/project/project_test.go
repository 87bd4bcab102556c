package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestRegisterAndList(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	p, err := s.Register("demo", dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, dir, p.Path)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "demo", list[0].Name)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Register("", t.TempDir())
	assert.Error(t, err)

	_, err = s.Register("ghost", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = s.Register("notdir", file)
	assert.Error(t, err)
}

func TestActivateUnknownProject(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Activate("nope")
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = s.Active()
	assert.ErrorIs(t, err, ErrNoActive)
}

func TestActivateLoadsDotEnv(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	envFile := "# comment line\n" +
		"PLAIN=value\n" +
		"QUOTED=\"with spaces\"\n" +
		"SINGLE='single quoted'\n" +
		"export EXPORTED=yes\n" +
		"\n" +
		"malformed line without equals\n" +
		"=novalue\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0o644))

	_, err := s.Register("demo", dir)
	require.NoError(t, err)
	_, err = s.Activate("demo")
	require.NoError(t, err)

	env := s.Env()
	assert.Equal(t, "value", env["PLAIN"])
	assert.Equal(t, "with spaces", env["QUOTED"])
	assert.Equal(t, "single quoted", env["SINGLE"])
	assert.Equal(t, "yes", env["EXPORTED"])
	assert.Equal(t, "demo", env["PROJECT_NAME"])
	assert.Equal(t, dir, env["PROJECT_PATH"])
	assert.NotContains(t, env, "malformed line without equals")
}

func TestActivateWithoutDotEnv(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	_, err := s.Register("bare", dir)
	require.NoError(t, err)
	_, err = s.Activate("bare")
	require.NoError(t, err)

	env := s.Env()
	assert.Equal(t, "bare", env["PROJECT_NAME"])
	assert.Equal(t, dir, env["PROJECT_PATH"])
	assert.Equal(t, dir, s.WorkDir())
}

func TestMergedEnvOverlaysProject(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("BRIDGE_TEST_ONLY=overlay\n"), 0o644))

	_, err := s.Register("demo", dir)
	require.NoError(t, err)

	// Before activation the merged env is just the process env.
	assert.NotContains(t, s.MergedEnv(), "BRIDGE_TEST_ONLY=overlay")

	_, err = s.Activate("demo")
	require.NoError(t, err)
	assert.Contains(t, s.MergedEnv(), "BRIDGE_TEST_ONLY=overlay")
}

func TestRegistryPersistsAcrossReopen(t *testing.T) {
	base := t.TempDir()
	dir := t.TempDir()

	s, err := NewStore(base)
	require.NoError(t, err)
	_, err = s.Register("demo", dir)
	require.NoError(t, err)
	_, err = s.Activate("demo")
	require.NoError(t, err)

	reopened, err := NewStore(base)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)

	active, err := reopened.Active()
	require.NoError(t, err)
	assert.Equal(t, "demo", active.Name)
}

func TestCorruptRegistryStartsFresh(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "projects.json"),
		[]byte("{not json"), 0o644))

	s, err := NewStore(base)
	require.NoError(t, err)
	assert.Empty(t, s.List())
}
