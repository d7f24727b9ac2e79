package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")

	m, err := NewManager(dir)
	require.NoError(t, err)

	info, err := os.Stat(m.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResetArchivesAndClears(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cookies"), []byte("pairing-state"), 0644))

	backup, err := m.Reset()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(backup, ".tar.gz"))
	_, err = os.Stat(backup)
	require.NoError(t, err, "backup archive must exist")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "profile directory is recreated empty")
}

func TestInfoReportsBackups(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cookies"), []byte("0123456789"), 0644))

	info := m.Info()
	assert.Equal(t, dir, info.Path)
	assert.EqualValues(t, 10, info.SizeBytes)
	assert.Zero(t, info.Backups)

	_, err = m.Reset()
	require.NoError(t, err)

	info = m.Info()
	assert.Equal(t, 1, info.Backups)
	assert.Zero(t, info.SizeBytes)
}

func TestResetOnMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))

	_, err = m.Reset()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
