package config

import (
	"errors"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestLoad_ColonyYAMLMatchesDefaults(t *testing.T) {
	cfg, err := Load("../../configs/colony.yaml")
	if err != nil {
		t.Fatalf("load colony.yaml: %v", err)
	}
	def := Default()
	if cfg.StandbyRetryTicks != def.StandbyRetryTicks || cfg.RepairThreshold != def.RepairThreshold {
		t.Fatalf("scheduler tuning drifted from defaults: %+v", cfg)
	}
	if cfg.Defense != def.Defense {
		t.Fatalf("defense = %+v, want %+v", cfg.Defense, def.Defense)
	}
	if got, want := len(cfg.Loadouts["worker"]), len(def.Loadouts["worker"]); got != want {
		t.Fatalf("worker loadouts = %d, want %d", got, want)
	}
	if fighter, ok := cfg.Loadouts["fighter"]; !ok || len(fighter) != 0 {
		t.Fatalf("fighter loadouts should be present and empty, got %v", fighter)
	}
	if cfg.Harness != def.Harness {
		t.Fatalf("harness = %+v, want %+v", cfg.Harness, def.Harness)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.StandbyRetryTicks != 10 || cfg.Defense.MaxDowntime != 15 || cfg.Defense.TowerRange != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParse_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("standby_retry_ticks: 25\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.StandbyRetryTicks != 25 {
		t.Fatalf("standby_retry_ticks = %d, want 25", cfg.StandbyRetryTicks)
	}
	if cfg.RepairThreshold != 0.8 || len(cfg.Loadouts["worker"]) != 3 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestParse_SchemaRejectsUnknownKey(t *testing.T) {
	_, err := Parse([]byte("standby_retry_tick: 5\n"))
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestParse_SchemaRejectsUnknownPart(t *testing.T) {
	_, err := Parse([]byte("loadouts:\n  worker:\n    - [work, wings]\n"))
	if err == nil {
		t.Fatalf("expected error for unknown body part")
	}
}

func TestParse_SchemaRejectsOutOfRangeThreshold(t *testing.T) {
	if _, err := Parse([]byte("repair_threshold: 1.5\n")); err == nil {
		t.Fatalf("expected error for repair_threshold > 1")
	}
}

func TestValidate_WorkerLoadoutRequired(t *testing.T) {
	cfg := Default()
	cfg.Loadouts["worker"] = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without worker loadouts")
	}
}

func TestApplyEnv_OverridesDBPath(t *testing.T) {
	t.Setenv("COLONY_DB", "/tmp/other.db")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Harness.DBPath != "/tmp/other.db" {
		t.Fatalf("db path = %q", cfg.Harness.DBPath)
	}
}
