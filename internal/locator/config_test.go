package locator

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
	s, err := ParseFlags([]string{"--poll-seconds", "2.5", "--min-stations", "5", "--vp-km-s", "6.2"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.PollSeconds)
	assert.Equal(t, 5, s.MinStations)
	assert.Equal(t, 6.2, s.VpKmS)
}

func TestParseFlags_ConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"min-stations": 6, "vp-km-s": 5.8}`), 0o644))

	s, err := ParseFlags([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 6, s.MinStations)
	assert.Equal(t, 5.8, s.VpKmS)
}

func TestParseFlags_ConfigFileFailsSchemaValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"min-stations": 1}`), 0o644)) // below schema minimum 3

	_, err := ParseFlags([]string{"--config", path})
	require.Error(t, err)
}

func TestStoreConfig_BuildsFromSettings(t *testing.T) {
	s := DefaultSettings()
	s.PgHost, s.PgDatabase = "db.internal", "seis"
	cfg := s.StoreConfig()
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "seis", cfg.Database)
}
