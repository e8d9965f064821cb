package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `envconfig:"SAMPLE_NAME" required:"true"`
	Limit int    `envconfig:"SAMPLE_LIMIT" default:"10"`
}

func TestExportEnvironmentFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SAMPLE_NAME=longevity\nSAMPLE_LIMIT=3\n"), 0o600))

	t.Cleanup(func() {
		_ = os.Unsetenv("SAMPLE_NAME")
		_ = os.Unsetenv("SAMPLE_LIMIT")
	})

	require.NoError(t, exportEnvironment(path))
	assert.Equal(t, "longevity", os.Getenv("SAMPLE_NAME"))
	assert.Equal(t, "3", os.Getenv("SAMPLE_LIMIT"))
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "agent")

	conf, err := New[sample]("")
	require.NoError(t, err)
	assert.Equal(t, "agent", conf.Name)
	assert.Equal(t, 10, conf.Limit)
}

func TestNewMissingRequired(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "")
	_ = os.Unsetenv("SAMPLE_NAME")

	_, err := New[sample]("")
	assert.Error(t, err)
}

func TestLoadDotEnvIfExistsMissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnvIfExists(filepath.Join(t.TempDir(), "missing.env")))
}
