// Command colonysim runs the colony decision core against a simulated room.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/journal"
	"github.com/talgya/mini-colony/internal/persistence"
	"github.com/talgya/mini-colony/internal/simworld"
	"github.com/talgya/mini-colony/internal/world"
)

func main() {
	slog.SetDefault(newLogger(os.Getenv("COLONY_LOG_LEVEL")))

	cfgPath := os.Getenv("COLONY_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/colony.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	slog.Info("config loaded", "path", cfgPath, "seed", cfg.Harness.Seed, "room", cfg.Harness.Room)

	if err := run(cfg); err != nil {
		slog.Error("colonysim failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil || level == "" {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg config.Config) error {
	h := cfg.Harness

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(h.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(h.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", h.DBPath)

	// ── World (restored from the last save, else generated from seed) ─
	sim, err := loadWorld(db, h)
	if err != nil {
		return err
	}
	slog.Info("world ready", "world", sim.String(),
		"sources", sim.Count(h.Room, world.KindSource), "agents", sim.Count(h.Room, world.KindAgent))

	// ── Colony state ─────────────────────────────────────────────────
	bank, err := db.LoadMemory()
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}
	records, err := db.LoadColonies()
	if err != nil {
		return fmt.Errorf("load colonies: %w", err)
	}
	registry := colony.NewRegistry(cfg.Defense.TowerRange, cfg.Defense.MaxDowntime)
	for _, id := range registry.Load(sim, records) {
		if err := db.DeleteColony(id); err != nil {
			slog.Warn("failed to delete stale colony", "colony", id, "error", err)
		}
	}
	slog.Info("colony state restored", "agents", bank.Len(), "colonies", registry.Len())

	// ── Core ─────────────────────────────────────────────────────────
	opts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.World = sim
	opts.Bank = bank
	opts.Registry = registry
	core, err := engine.NewCore(opts)
	if err != nil {
		return err
	}

	var jw *journal.Writer
	if h.JournalDir != "" {
		jw = journal.NewWriter(h.JournalDir, "ticks", journal.DefaultSegmentTicks)
		defer jw.Close()
	}

	raids := rand.New(rand.NewSource(h.Seed + 500))

	eng := engine.NewEngine(sim.Tick())
	eng.Interval = h.TickInterval()
	eng.MaxTicks = h.MaxTicks
	eng.SaveEvery = h.SaveEveryTicks
	eng.ReportEvery = h.ReportEveryTicks

	eng.OnTick = func(tick uint64) {
		sim.Step()
		if h.RaidEveryTicks > 0 && tick%h.RaidEveryTicks == 0 {
			raid(sim, h.Room, raids)
		}
		core.Tick()
		if jw != nil {
			if err := jw.WriteTick(tick, core.LastReport()); err != nil {
				slog.Warn("journal write failed", "tick", tick, "error", err)
			}
		}
	}
	eng.OnSave = func(tick uint64) {
		if err := save(db, sim, bank, registry, core, tick); err != nil {
			slog.Error("save failed", "tick", tick, "error", err)
		}
	}
	eng.OnReport = func(tick uint64) {
		report(core.LastReport())
	}

	// ── Signals ──────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng.Run(ctx)
	return nil
}

func loadWorld(db *persistence.DB, h config.HarnessConfig) (*simworld.World, error) {
	raw, err := db.GetMeta(persistence.WorldSnapshotKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		gen := simworld.DefaultGenConfig()
		gen.Seed = h.Seed
		gen.Room = h.Room
		slog.Info("no saved world, generating", "seed", gen.Seed, "room", gen.Room)
		return simworld.Generate(gen), nil
	case err != nil:
		return nil, fmt.Errorf("read world snapshot: %w", err)
	}
	sim, err := simworld.Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	slog.Info("world restored", "tick", sim.Tick())
	return sim, nil
}

func save(db *persistence.DB, sim *simworld.World, bank *agents.MemoryBank, registry *colony.Registry, core *engine.Core, tick uint64) error {
	snap, err := sim.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	return db.SaveState(persistence.State{
		Tick:     tick,
		World:    snap,
		Bank:     bank,
		Colonies: registry.Records(),
		Events:   core.DrainEvents(),
	})
}

// raid drops a hostile on a random walkable tile so the towers have work.
func raid(sim *simworld.World, room string, rng *rand.Rand) {
	for attempt := 0; attempt < 100; attempt++ {
		p := world.Position{X: 1 + rng.Intn(world.RoomSize-2), Y: 1 + rng.Intn(world.RoomSize-2), Room: room}
		if sim.Terrain(p) == world.TerrainWall {
			continue
		}
		id := sim.AddHostile(p, 1000+rng.Intn(2000))
		slog.Info("hostile arrived", "room", room, "hostile", id, "pos", p.String())
		return
	}
}

func report(r engine.Report) {
	for _, c := range r.Colonies {
		slog.Info("colony report",
			"tick", humanize.Comma(int64(r.Tick)),
			"colony", c.ID,
			"agents", c.Agents,
			"energy", fmt.Sprintf("%s/%s", humanize.Comma(int64(c.Energy)), humanize.Comma(int64(c.EnergyCapacity))),
			"harvesting", c.Tasks[agents.TaskHarvest],
			"upgrading", c.Tasks[agents.TaskUpgrade],
			"building", c.Tasks[agents.TaskBuild]+c.Tasks[agents.TaskRepair],
			"standby", c.Tasks[agents.TaskStandby],
			"downtime", c.Downtime,
		)
	}
}
