package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SafetyMacros(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"unsafe"}, cfg.Safety.Macros)
	assert.Empty(t, cfg.Rules.Disabled)
}

func TestLoad_MissingDefaultIsNotAnError(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(wd) })
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macrolens.yaml")
	data := []byte("safety:\n  macros: [unsafe, totally_unsafe]\nrules:\n  disabled: [smp_mb]\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"unsafe", "totally_unsafe"}, cfg.Safety.Macros)
	assert.Equal(t, []string{"smp_mb"}, cfg.Rules.Disabled)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macrolens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  disabled: [get_user]\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"unsafe"}, cfg.Safety.Macros)
	assert.Equal(t, []string{"get_user"}, cfg.Rules.Disabled)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safety: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
