package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_Defaults(t *testing.T) {
	s, err := ParseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestParseFlags_OverridesDefaults(t *testing.T) {
	s, err := ParseFlags([]string{"--bus-host", "bus.example.com", "--detector-mode", "picker", "--fmin", "2"})
	require.NoError(t, err)
	assert.Equal(t, "bus.example.com", s.BusHost)
	assert.Equal(t, ModePicker, s.DetectorMode)
	assert.Equal(t, 2.0, s.FMin)
}

func TestParseFlags_ConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fmin": 0.5, "fmax": 15}`), 0o644))

	s, err := ParseFlags([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.FMin)
	assert.Equal(t, 15.0, s.FMax)
}

func TestParseFlags_ConfigFileFailsSchemaValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"detector-mode": "not-a-mode"}`), 0o644))

	_, err := ParseFlags([]string{"--config", path})
	require.Error(t, err)
}

func TestParseFlags_ConfigFileMissing(t *testing.T) {
	_, err := ParseFlags([]string{"--config", "/nonexistent/path.json"})
	require.Error(t, err)
}

func TestBusConfig_BuildsFromSettings(t *testing.T) {
	s := DefaultSettings()
	s.BusHost, s.BusPort = "bus.internal", 4222
	cfg := s.BusConfig()
	assert.Equal(t, "nats://bus.internal:4222", cfg.Address)
	assert.Equal(t, s.Prefetch, cfg.Prefetch)
}

func TestStoreConfig_BuildsFromSettings(t *testing.T) {
	s := DefaultSettings()
	s.PgHost, s.PgDatabase = "db.internal", "seis"
	cfg := s.StoreConfig()
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "seis", cfg.Database)
}
