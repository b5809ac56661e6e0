// Package persistence provides SQLite-based colony state storage.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/world"
)

// DB wraps a SQLite connection for colony state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agent_memory (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		manager TEXT NOT NULL,
		colony TEXT NOT NULL,
		task TEXT NOT NULL,
		target_kind TEXT NOT NULL,
		target_id TEXT NOT NULL,
		target_x INTEGER NOT NULL,
		target_y INTEGER NOT NULL,
		target_room TEXT NOT NULL,
		last_task_change INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS colonies (
		id TEXT PRIMARY KEY,
		anchor_id TEXT NOT NULL,
		defense_downtime INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		colony TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_agent_memory_colony ON agent_memory(colony);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type memoryRow struct {
	ID             string `db:"id"`
	Role           string `db:"role"`
	Manager        string `db:"manager"`
	Colony         string `db:"colony"`
	Task           string `db:"task"`
	LastTaskChange int64  `db:"last_task_change"`
	world.TargetRecord
}

// SaveMemory writes every agent memory to the database (full replace).
func (db *DB) SaveMemory(bank *agents.MemoryBank) error {
	return db.inTx(func(tx *sqlx.Tx) error { return saveMemory(tx, bank) })
}

func saveMemory(tx *sqlx.Tx, bank *agents.MemoryBank) error {
	if _, err := tx.Exec("DELETE FROM agent_memory"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO agent_memory
		(id, role, manager, colony, task,
		 target_kind, target_id, target_x, target_y, target_room, last_task_change)
		VALUES (:id, :role, :manager, :colony, :task,
		 :target_kind, :target_id, :target_x, :target_y, :target_room, :last_task_change)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range bank.IDs() {
		m, _ := bank.Get(id)
		row := memoryRow{
			ID:             string(id),
			Role:           string(m.Role),
			Manager:        string(m.Manager),
			Colony:         m.Colony,
			Task:           string(m.Task),
			LastTaskChange: int64(m.LastTaskChange),
			TargetRecord:   m.Target.Record(),
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert memory %s: %w", id, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (db *DB) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadMemory reads every stored agent memory into a fresh bank.
func (db *DB) LoadMemory() (*agents.MemoryBank, error) {
	var rows []memoryRow
	if err := db.conn.Select(&rows, `SELECT id, role, manager, colony, task,
		target_kind, target_id, target_x, target_y, target_room, last_task_change
		FROM agent_memory ORDER BY id`); err != nil {
		return nil, err
	}

	bank := agents.NewMemoryBank()
	for _, r := range rows {
		role, err := agents.ParseRole(r.Role)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", r.ID, err)
		}
		task, err := agents.ParseTask(r.Task)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", r.ID, err)
		}
		target, err := r.TargetRecord.Target()
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", r.ID, err)
		}
		bank.Put(world.EntityID(r.ID), agents.Memory{
			Role:           role,
			Manager:        agents.ManagerID(r.Manager),
			Colony:         r.Colony,
			Task:           task,
			Target:         target,
			LastTaskChange: uint64(r.LastTaskChange),
		})
	}
	return bank, nil
}

// SaveColonies writes all colony records (full replace).
func (db *DB) SaveColonies(records []colony.Record) error {
	return db.inTx(func(tx *sqlx.Tx) error { return saveColonies(tx, records) })
}

func saveColonies(tx *sqlx.Tx, records []colony.Record) error {
	if _, err := tx.Exec("DELETE FROM colonies"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := tx.NamedExec(`INSERT INTO colonies (id, anchor_id, defense_downtime)
			VALUES (:id, :anchor_id, :defense_downtime)`, r); err != nil {
			return fmt.Errorf("insert colony %s: %w", r.ID, err)
		}
	}
	return nil
}

// LoadColonies returns every stored colony record.
func (db *DB) LoadColonies() ([]colony.Record, error) {
	var records []colony.Record
	err := db.conn.Select(&records, "SELECT id, anchor_id, defense_downtime FROM colonies ORDER BY rowid")
	return records, err
}

// DeleteColony removes a colony record.
func (db *DB) DeleteColony(id string) error {
	_, err := db.conn.Exec("DELETE FROM colonies WHERE id = ?", id)
	return err
}

// SaveEvents appends events to the log.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	return db.inTx(func(tx *sqlx.Tx) error { return saveEvents(tx, events) })
}

func saveEvents(tx *sqlx.Tx, events []engine.Event) error {
	for _, e := range events {
		if _, err := tx.Exec("INSERT INTO events (tick, colony, description, category) VALUES (?, ?, ?, ?)",
			int64(e.Tick), e.Colony, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, colony, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	return saveMeta(db.conn, key, value)
}

func saveMeta(e sqlx.Execer, key, value string) error {
	_, err := e.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// LastTick returns the tick of the last full save, and false if nothing
// was ever saved.
func (db *DB) LastTick() (uint64, bool, error) {
	v, err := db.GetMeta("last_tick")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	tick, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("last_tick %q: %w", v, err)
	}
	return tick, true, nil
}

// WorldSnapshotKey is the metadata key holding the encoded world.
const WorldSnapshotKey = "world_snapshot"

// State is everything one full save writes.
type State struct {
	Tick     uint64
	World    []byte // encoded world snapshot; nil leaves the stored one alone
	Bank     *agents.MemoryBank
	Colonies []colony.Record
	Events   []engine.Event
}

// SaveState performs a full save in a single transaction, so the stored
// world and the colony state always describe the same tick.
func (db *DB) SaveState(s State) error {
	slog.Info("saving colony state", "tick", s.Tick, "agents", s.Bank.Len(), "colonies", len(s.Colonies))

	err := db.inTx(func(tx *sqlx.Tx) error {
		if s.World != nil {
			if err := saveMeta(tx, WorldSnapshotKey, string(s.World)); err != nil {
				return fmt.Errorf("save world: %w", err)
			}
		}
		if err := saveMemory(tx, s.Bank); err != nil {
			return fmt.Errorf("save memory: %w", err)
		}
		if err := saveColonies(tx, s.Colonies); err != nil {
			return fmt.Errorf("save colonies: %w", err)
		}
		if err := saveEvents(tx, s.Events); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
		if err := saveMeta(tx, "last_tick", strconv.FormatUint(s.Tick, 10)); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("colony state saved")
	return nil
}
