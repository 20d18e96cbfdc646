// Package locator wires the poll cycle (fetch -> associate -> solve ->
// persist) driven by gocron, matching §4.7/§4.9/§4.10. Grounded on the
// teacher's internal/taskManager.Start scheduling idiom and
// cmd/cc-backend/main.go's flag-plus-JSON-overlay configuration.
package locator

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/seisgo/pipeline/internal/store"
)

// Settings mirrors locator/settings.py field for field, plus the
// Postgres connection parameters shared with the detector's CLI
// surface (§6).
type Settings struct {
	PgHost     string `json:"pg-host"`
	PgPort     int    `json:"pg-port"`
	PgUser     string `json:"pg-user"`
	PgPassword string `json:"pg-password"`
	PgDatabase string `json:"pg-database"`

	PollSeconds               float64 `json:"poll-seconds"`
	LookbackSeconds           int     `json:"lookback-seconds"`
	AssociationWindowSeconds  float64 `json:"association-window-seconds"`
	MinStations               int     `json:"min-stations"`
	MinPhases                 int     `json:"min-phases"`
	MinPickScore              float64 `json:"min-pick-score"`
	VpKmS                     float64 `json:"vp-km-s"`
	MaxResidualSeconds        float64 `json:"max-residual-seconds"`
	MaxDepthKM                float64 `json:"max-depth-km"`
	MaxIterations             int     `json:"max-iterations"`

	LogLevel string `json:"log-level"`
	HTTPAddr string `json:"http-addr"`
}

// DefaultSettings returns the original locator's baseline defaults.
func DefaultSettings() Settings {
	return Settings{
		PgHost: "localhost", PgPort: 5432, PgUser: "seis", PgPassword: "seis", PgDatabase: "seismic",
		PollSeconds:              5,
		LookbackSeconds:          600,
		AssociationWindowSeconds: 8,
		MinStations:              4,
		MinPhases:                4,
		MinPickScore:             0,
		VpKmS:                    6.0,
		MaxResidualSeconds:       3.0,
		MaxDepthKM:               80,
		MaxIterations:            30,
		LogLevel:                 "info",
		HTTPAddr:                 ":9091",
	}
}

const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "poll-seconds": {"type": "number", "exclusiveMinimum": 0},
    "association-window-seconds": {"type": "number", "exclusiveMinimum": 0},
    "min-stations": {"type": "integer", "minimum": 3},
    "min-phases": {"type": "integer", "minimum": 1},
    "vp-km-s": {"type": "number", "exclusiveMinimum": 0},
    "max-residual-seconds": {"type": "number", "exclusiveMinimum": 0}
  }
}`

// ParseFlags populates Settings from the CLI surface (§6), then applies
// an optional --config JSON overlay validated against settingsSchema.
func ParseFlags(args []string) (Settings, error) {
	s := DefaultSettings()

	fs := flag.NewFlagSet("locator", flag.ContinueOnError)
	fs.StringVar(&s.PgHost, "pg-host", s.PgHost, "postgres host")
	fs.IntVar(&s.PgPort, "pg-port", s.PgPort, "postgres port")
	fs.StringVar(&s.PgUser, "pg-user", s.PgUser, "postgres username")
	fs.StringVar(&s.PgPassword, "pg-password", s.PgPassword, "postgres password")
	fs.StringVar(&s.PgDatabase, "pg-database", s.PgDatabase, "postgres database")
	fs.Float64Var(&s.PollSeconds, "poll-seconds", s.PollSeconds, "poll cycle interval")
	fs.IntVar(&s.LookbackSeconds, "lookback-seconds", s.LookbackSeconds, "pick fetch lookback window")
	fs.Float64Var(&s.AssociationWindowSeconds, "association-window-seconds", s.AssociationWindowSeconds, "associator time window")
	fs.IntVar(&s.MinStations, "min-stations", s.MinStations, "minimum distinct stations per event")
	fs.IntVar(&s.MinPhases, "min-phases", s.MinPhases, "minimum picks per event")
	fs.Float64Var(&s.MinPickScore, "min-pick-score", s.MinPickScore, "minimum pick score to associate")
	fs.Float64Var(&s.VpKmS, "vp-km-s", s.VpKmS, "assumed P-wave velocity")
	fs.Float64Var(&s.MaxResidualSeconds, "max-residual-seconds", s.MaxResidualSeconds, "max RMS residual to accept an origin")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "debug|info|warn|error")
	fs.StringVar(&s.HTTPAddr, "http-addr", s.HTTPAddr, "healthz/metrics listen address")
	configFile := fs.String("config", "", "optional JSON config overlay")

	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}

	if *configFile != "" {
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			return Settings{}, fmt.Errorf("locator: reading config file: %w", err)
		}
		if err := validateSettings(raw); err != nil {
			return Settings{}, err
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return Settings{}, fmt.Errorf("locator: parsing config file: %w", err)
		}
	}

	return s, nil
}

func validateSettings(raw []byte) error {
	sch, err := jsonschema.CompileString("locator-settings.json", settingsSchema)
	if err != nil {
		return fmt.Errorf("locator: compiling settings schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("locator: config file is not valid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("locator: config file failed validation: %w", err)
	}
	return nil
}

// StoreConfig builds the internal/store connection config from Settings.
func (s Settings) StoreConfig() store.Config {
	return store.Config{
		Host: s.PgHost, Port: s.PgPort, User: s.PgUser,
		Password: s.PgPassword, Database: s.PgDatabase,
	}
}
