package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/cruload/pkg/cru"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
	return dir
}

func TestLoad_AllFields(t *testing.T) {
	dir := writeConfig(t, `
connection: postgresql://loader@localhost:5432/climate
table: climate.precipitation
batch_size: 50000
append: true
strict: false
timeout: 45m
metrics_file: /tmp/cruload.prom
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgresql://loader@localhost:5432/climate", cfg.Connection)
	assert.Equal(t, "climate.precipitation", cfg.Table)
	require.NotNil(t, cfg.BatchSize)
	assert.Equal(t, 50000, *cfg.BatchSize)
	require.NotNil(t, cfg.Append)
	assert.True(t, *cfg.Append)
	require.NotNil(t, cfg.Strict)
	assert.False(t, *cfg.Strict)
	assert.Equal(t, "/tmp/cruload.prom", cfg.MetricsFile)

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, timeout)
}

func TestLoad_UnsetFieldsStayNil(t *testing.T) {
	cfg, err := Load(writeConfig(t, "table: pre\n"))
	require.NoError(t, err)

	assert.Nil(t, cfg.BatchSize)
	assert.Nil(t, cfg.Append)
	assert.Nil(t, cfg.Strict)

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, timeout)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, cfg)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "tabel: pre\n"},
		{"wrong type", "batch_size: lots\n"},
		{"zero batch size", "batch_size: 0\n"},
		{"negative batch size", "batch_size: -5\n"},
		{"bad timeout", "timeout: soon\n"},
		{"negative timeout", "timeout: -1m\n"},
		{"not a mapping", "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, cru.ErrInvalidConfig)
		})
	}
}

func TestParse_CollectsAllErrors(t *testing.T) {
	_, err := Parse([]byte("batch_size: 0\ntimeout: soon\n"))
	require.Error(t, err)

	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "timeout")
}
