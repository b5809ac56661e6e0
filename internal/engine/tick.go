// Package engine provides the tick loop and the colony core it drives.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Engine drives the simulation forward one tick at a time. Callbacks run on
// the loop goroutine, so a tick always finishes before the next begins.
type Engine struct {
	Tick     uint64        // Last completed tick (monotonic, never resets)
	Interval time.Duration // Wall-clock delay between ticks (0 = as fast as possible)
	MaxTicks uint64        // Stop after this tick (0 = run until cancelled)

	SaveEvery   uint64 // Ticks between OnSave calls
	ReportEvery uint64 // Ticks between OnReport calls

	// Callbacks, populated during setup.
	OnTick   func(tick uint64) // Every tick
	OnSave   func(tick uint64) // Every SaveEvery ticks, and once on stop
	OnReport func(tick uint64) // Every ReportEvery ticks
}

// NewEngine creates an engine resuming after tick.
func NewEngine(tick uint64) *Engine {
	return &Engine{
		Tick:        tick,
		Interval:    time.Second,
		SaveEvery:   100,
		ReportEvery: 100,
	}
}

// Run loops until ctx is cancelled or MaxTicks is reached, then saves once
// more.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "tick", e.Tick, "interval", e.Interval)

	var ticker *time.Ticker
	if e.Interval > 0 {
		ticker = time.NewTicker(e.Interval)
		defer ticker.Stop()
	}

	for e.MaxTicks == 0 || e.Tick < e.MaxTicks {
		if ticker != nil {
			select {
			case <-ctx.Done():
				e.stop()
				return
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			e.stop()
			return
		}
		e.step()
	}
	e.stop()
}

func (e *Engine) stop() {
	if e.OnSave != nil {
		e.OnSave(e.Tick)
	}
	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	if e.SaveEvery > 0 && e.Tick%e.SaveEvery == 0 && e.OnSave != nil {
		e.OnSave(e.Tick)
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}
