// Package config loads colony tuning from YAML, validated against an
// embedded JSON Schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-colony/internal/world"
)

//go:embed schema.json
var schemaJSON []byte

// Config is the full colony configuration.
type Config struct {
	StandbyRetryTicks    uint64                    `yaml:"standby_retry_ticks"`
	RepairThreshold      float64                   `yaml:"repair_threshold"`
	GrowEnergyRatio      float64                   `yaml:"grow_energy_ratio"`
	PopulationEveryTicks uint64                    `yaml:"population_every_ticks"`
	Defense              DefenseConfig             `yaml:"defense"`
	Loadouts             map[string][][]world.Part `yaml:"loadouts"`
	Harness              HarnessConfig             `yaml:"harness"`
}

// DefenseConfig tunes tower defense.
type DefenseConfig struct {
	TowerRange  int `yaml:"tower_range"`
	MaxDowntime int `yaml:"max_downtime"`
}

// HarnessConfig drives the colonysim binary.
type HarnessConfig struct {
	Seed             int64  `yaml:"seed"`
	Room             string `yaml:"room"`
	TickIntervalMS   int    `yaml:"tick_interval_ms"`
	MaxTicks         uint64 `yaml:"max_ticks"`
	SaveEveryTicks   uint64 `yaml:"save_every_ticks"`
	ReportEveryTicks uint64 `yaml:"report_every_ticks"`
	RaidEveryTicks   uint64 `yaml:"raid_every_ticks"`
	DBPath           string `yaml:"db_path"`
	JournalDir       string `yaml:"journal_dir"`
}

// TickInterval returns the wall-clock delay between ticks.
func (h HarnessConfig) TickInterval() time.Duration {
	return time.Duration(h.TickIntervalMS) * time.Millisecond
}

// Default returns the built-in configuration, matching configs/colony.yaml.
func Default() Config {
	return Config{
		StandbyRetryTicks:    10,
		RepairThreshold:      0.8,
		GrowEnergyRatio:      0.8,
		PopulationEveryTicks: 1,
		Defense: DefenseConfig{
			TowerRange:  20,
			MaxDowntime: 15,
		},
		Loadouts: map[string][][]world.Part{
			"worker": {
				{world.PartWork, world.PartCarry, world.PartMove},
				{world.PartWork, world.PartWork, world.PartCarry, world.PartCarry, world.PartMove, world.PartMove},
				{
					world.PartWork, world.PartWork, world.PartWork, world.PartWork,
					world.PartCarry, world.PartCarry, world.PartCarry, world.PartCarry,
					world.PartMove, world.PartMove, world.PartMove, world.PartMove,
				},
			},
			"fighter": {},
		},
		Harness: HarnessConfig{
			Seed:             1337,
			Room:             "W1N1",
			TickIntervalMS:   50,
			SaveEveryTicks:   100,
			ReportEveryTicks: 100,
			RaidEveryTicks:   500,
			DBPath:           "data/colony.db",
			JournalDir:       "data/journal",
		},
	}
}

// Load reads a YAML config. Keys missing from the file keep their defaults;
// an empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse decodes and validates YAML config bytes over the defaults.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := validateSchema(b); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("colony.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("colony.yaml: %w", err)
	}
	return cfg, nil
}

func validateSchema(b []byte) error {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("colony.yaml: %w", err)
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("colony.yaml: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("colony.yaml: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("colony.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile("colony.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("colony.yaml: %w", err)
	}
	return nil
}

// Validate checks constraints the schema cannot express.
func (c Config) Validate() error {
	if c.StandbyRetryTicks == 0 {
		return fmt.Errorf("standby_retry_ticks must be > 0")
	}
	if c.RepairThreshold <= 0 || c.RepairThreshold > 1 {
		return fmt.Errorf("repair_threshold must be in (0, 1]")
	}
	if c.Defense.TowerRange <= 0 {
		return fmt.Errorf("defense.tower_range must be > 0")
	}
	if c.Defense.MaxDowntime < 1 {
		return fmt.Errorf("defense.max_downtime must be >= 1")
	}
	if len(c.Loadouts["worker"]) == 0 {
		return fmt.Errorf("loadouts.worker must not be empty")
	}
	for id, bodies := range c.Loadouts {
		for i, body := range bodies {
			if len(body) == 0 {
				return fmt.Errorf("loadouts.%s[%d]: empty body", id, i)
			}
			for _, p := range body {
				if !world.KnownPart(p) {
					return fmt.Errorf("loadouts.%s[%d]: unknown part %q", id, i, p)
				}
			}
		}
	}
	return nil
}

// ApplyEnv overrides harness settings from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("COLONY_DB")); v != "" {
		c.Harness.DBPath = v
	}
}
