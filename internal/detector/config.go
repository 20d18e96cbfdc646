// Package detector wires the bus consumer, rolling buffers, the
// STA/LTA and phase-picker backends, PickDedup and DetectScheduler
// (§4.5-§4.6), and persistence into a single service loop. Grounded on
// the teacher's flag-plus-JSON-overlay configuration idiom
// (cmd/cc-backend/main.go's ProgramConfig + internal/config/validate.go).
package detector

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/seisgo/pipeline/internal/store"
	"github.com/seisgo/pipeline/pkg/nats"
)

// Mode selects the trigger backend.
type Mode string

const (
	ModeStaLta Mode = "sta_lta"
	ModePicker Mode = "picker"
)

// Settings mirrors detector/settings.py field for field, plus the
// connection parameters common to both services' CLI surface (§6).
type Settings struct {
	// Bus connection
	BusHost     string `json:"bus-host"`
	BusPort     int    `json:"bus-port"`
	BusUser     string `json:"bus-user"`
	BusPassword string `json:"bus-password"`
	BusVhost    string `json:"bus-vhost"`

	// Postgres connection
	PgHost     string `json:"pg-host"`
	PgPort     int    `json:"pg-port"`
	PgUser     string `json:"pg-user"`
	PgPassword string `json:"pg-password"`
	PgDatabase string `json:"pg-database"`

	// Detection knobs
	DetectorMode      Mode    `json:"detector-mode"`
	BufferSeconds     float64 `json:"buffer-seconds"`
	DetectEverySeconds float64 `json:"detect-every-seconds"`
	FMin              float64 `json:"fmin"`
	FMax              float64 `json:"fmax"`
	StaSeconds        float64 `json:"sta-seconds"`
	LtaSeconds        float64 `json:"lta-seconds"`
	TriggerOn         float64 `json:"trigger-on"`
	TriggerOff        float64 `json:"trigger-off"`
	PickFilterSeconds float64 `json:"pick-filter-seconds"`
	TaperFraction     float64 `json:"taper-fraction"`
	Prefetch          int     `json:"prefetch"`

	LogLevel string `json:"log-level"`
	HTTPAddr string `json:"http-addr"`
}

// DefaultSettings returns the baseline values overridden by flags and
// then by an optional JSON config file.
func DefaultSettings() Settings {
	return Settings{
		BusHost: "localhost", BusPort: 5672, BusVhost: "/",
		PgHost: "localhost", PgPort: 5432, PgDatabase: "seismic",
		DetectorMode:       ModeStaLta,
		BufferSeconds:      120,
		DetectEverySeconds: 15,
		FMin:               0.1, FMax: 10,
		StaSeconds: 6, LtaSeconds: 20,
		TriggerOn: 2.5, TriggerOff: 0.5,
		PickFilterSeconds: 2,
		TaperFraction:     0.05,
		Prefetch:          50,
		LogLevel:          "info",
		HTTPAddr:          ":9090",
	}
}

// settingsSchema validates the JSON overlay file, mirroring
// internal/config/validate.go's jsonschema.CompileString usage.
const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "detector-mode": {"enum": ["sta_lta", "picker"]},
    "buffer-seconds": {"type": "number", "exclusiveMinimum": 0},
    "detect-every-seconds": {"type": "number", "exclusiveMinimum": 0},
    "fmin": {"type": "number", "exclusiveMinimum": 0},
    "fmax": {"type": "number", "exclusiveMinimum": 0},
    "sta-seconds": {"type": "number", "exclusiveMinimum": 0},
    "lta-seconds": {"type": "number", "exclusiveMinimum": 0},
    "prefetch": {"type": "integer", "minimum": 1}
  }
}`

// ParseFlags populates Settings from the CLI surface (§6), then applies
// an optional --config JSON overlay (validated against settingsSchema),
// mirroring cc-backend main.go's flag+config-file pattern.
func ParseFlags(args []string) (Settings, error) {
	s := DefaultSettings()

	fs := flag.NewFlagSet("detector", flag.ContinueOnError)
	fs.StringVar(&s.BusHost, "bus-host", s.BusHost, "message bus host")
	fs.IntVar(&s.BusPort, "bus-port", s.BusPort, "message bus port")
	fs.StringVar(&s.BusUser, "bus-user", s.BusUser, "message bus username")
	fs.StringVar(&s.BusPassword, "bus-password", s.BusPassword, "message bus password")
	fs.StringVar(&s.BusVhost, "bus-vhost", s.BusVhost, "message bus vhost")
	fs.StringVar(&s.PgHost, "pg-host", s.PgHost, "postgres host")
	fs.IntVar(&s.PgPort, "pg-port", s.PgPort, "postgres port")
	fs.StringVar(&s.PgUser, "pg-user", s.PgUser, "postgres username")
	fs.StringVar(&s.PgPassword, "pg-password", s.PgPassword, "postgres password")
	fs.StringVar(&s.PgDatabase, "pg-database", s.PgDatabase, "postgres database")
	mode := fs.String("detector-mode", string(s.DetectorMode), "sta_lta or picker")
	fs.Float64Var(&s.BufferSeconds, "buffer-seconds", s.BufferSeconds, "rolling buffer length")
	fs.Float64Var(&s.DetectEverySeconds, "detect-every-seconds", s.DetectEverySeconds, "detector run cooldown")
	fs.Float64Var(&s.FMin, "fmin", s.FMin, "bandpass low corner Hz")
	fs.Float64Var(&s.FMax, "fmax", s.FMax, "bandpass high corner Hz")
	fs.Float64Var(&s.StaSeconds, "sta-seconds", s.StaSeconds, "short-term average window")
	fs.Float64Var(&s.LtaSeconds, "lta-seconds", s.LtaSeconds, "long-term average window")
	fs.Float64Var(&s.TriggerOn, "trigger-on", s.TriggerOn, "STA/LTA trigger-on ratio")
	fs.Float64Var(&s.TriggerOff, "trigger-off", s.TriggerOff, "STA/LTA trigger-off ratio")
	fs.Float64Var(&s.PickFilterSeconds, "pick-filter-seconds", s.PickFilterSeconds, "dedup window")
	fs.IntVar(&s.Prefetch, "prefetch", s.Prefetch, "bus prefetch / in-flight cap")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "debug|info|warn|error")
	fs.StringVar(&s.HTTPAddr, "http-addr", s.HTTPAddr, "healthz/metrics listen address")
	configFile := fs.String("config", "", "optional JSON config overlay")

	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}
	s.DetectorMode = Mode(*mode)

	if *configFile != "" {
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			return Settings{}, fmt.Errorf("detector: reading config file: %w", err)
		}
		if err := validateSettings(raw); err != nil {
			return Settings{}, err
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return Settings{}, fmt.Errorf("detector: parsing config file: %w", err)
		}
	}

	return s, nil
}

func validateSettings(raw []byte) error {
	sch, err := jsonschema.CompileString("detector-settings.json", settingsSchema)
	if err != nil {
		return fmt.Errorf("detector: compiling settings schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("detector: config file is not valid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("detector: config file failed validation: %w", err)
	}
	return nil
}

// BusConfig builds the pkg/nats client config from Settings.
func (s Settings) BusConfig() nats.Config {
	cfg := nats.DefaultConfig()
	cfg.Address = fmt.Sprintf("nats://%s:%d", s.BusHost, s.BusPort)
	cfg.Username = s.BusUser
	cfg.Password = s.BusPassword
	cfg.Vhost = s.BusVhost
	cfg.Prefetch = s.Prefetch
	return cfg
}

// StoreConfig builds the internal/store connection config from Settings.
func (s Settings) StoreConfig() store.Config {
	return store.Config{
		Host: s.PgHost, Port: s.PgPort, User: s.PgUser,
		Password: s.PgPassword, Database: s.PgDatabase,
	}
}
