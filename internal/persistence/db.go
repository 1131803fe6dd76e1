// Package persistence provides SQLite-based simulation state storage.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/engine"
	"github.com/talgya/planeforge/internal/entropy"
	"github.com/talgya/planeforge/internal/world"
)

// ErrNoState is returned by LoadSimulation when nothing has been saved.
var ErrNoState = errors.New("no saved state")

// Meta keys.
const (
	metaTick      = "last_tick"
	metaProgress  = "progress"
	metaNextID    = "next_id"
	metaSelection = "selection"
	metaSeeds     = "seed_state"
	metaBaseBonus = "base_bonus"
	metaWorldSeed = "world_seed"
)

// DB wraps a SQLite connection for simulation persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
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
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY,
		tag TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS regions (
		id TEXT PRIMARY KEY,
		ord INTEGER NOT NULL,
		source_seed INTEGER NOT NULL,
		tier TEXT NOT NULL,
		display_name TEXT NOT NULL,
		accumulated TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger (
		kind TEXT PRIMARY KEY,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cooldowns (
		kind TEXT PRIMARY KEY,
		remaining REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_regions_ord ON regions(ord);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type nodeRow struct {
	ID    int64   `db:"id"`
	Tag   string  `db:"tag"`
	X     float64 `db:"x"`
	Y     float64 `db:"y"`
	State string  `db:"state_json"`
}

type regionRow struct {
	ID          string          `db:"id"`
	Ord         int             `db:"ord"`
	SourceSeed  int64           `db:"source_seed"`
	Tier        string          `db:"tier"`
	DisplayName string          `db:"display_name"`
	Accumulated decimal.Decimal `db:"accumulated"`
}

type ledgerRow struct {
	Kind   string          `db:"kind"`
	Amount decimal.Decimal `db:"amount"`
}

type cooldownRow struct {
	Kind      string  `db:"kind"`
	Remaining float64 `db:"remaining"`
}

// SaveSimulation writes the complete simulation state in one transaction
// (full replace).
func (db *DB) SaveSimulation(ctx context.Context, sim *engine.Simulation) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "regions", "ledger", "cooldowns", "events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveNodes(ctx, tx, sim.Board.Nodes()); err != nil {
		return err
	}
	for i, r := range sim.Atlas.List() {
		row := regionRow{
			ID:          r.ID,
			Ord:         i,
			SourceSeed:  int64(r.SourceSeed),
			Tier:        r.Tier.String(),
			DisplayName: r.DisplayName,
			Accumulated: r.Accumulated,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO regions
			(id, ord, source_seed, tier, display_name, accumulated)
			VALUES (:id, :ord, :source_seed, :tier, :display_name, :accumulated)`, row); err != nil {
			return fmt.Errorf("insert region %s: %w", r.ID, err)
		}
	}
	for _, k := range sim.Ledger.Kinds() {
		if _, err := tx.ExecContext(ctx, "INSERT INTO ledger (kind, amount) VALUES (?, ?)",
			k.String(), sim.Ledger.Amount(k).String()); err != nil {
			return fmt.Errorf("insert ledger %s: %w", k, err)
		}
	}
	for k, v := range sim.Producer.Cooldowns {
		if _, err := tx.ExecContext(ctx, "INSERT INTO cooldowns (kind, remaining) VALUES (?, ?)",
			k.String(), v); err != nil {
			return fmt.Errorf("insert cooldown %s: %w", k, err)
		}
	}
	for _, e := range sim.Events {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	seeds, err := json.Marshal(sim.Seeds.State())
	if err != nil {
		return err
	}
	selected, _ := sim.Board.Selected()
	meta := map[string]string{
		metaTick:      strconv.FormatUint(sim.LastTick, 10),
		metaProgress:  strconv.FormatFloat(sim.Producer.Progress, 'g', -1, 64),
		metaNextID:    strconv.FormatUint(uint64(sim.Board.NextID()), 10),
		metaSelection: strconv.FormatUint(uint64(selected), 10),
		metaSeeds:     string(seeds),
		metaBaseBonus: strconv.Itoa(sim.Settings.BaseCapacityBonus),
		metaWorldSeed: strconv.FormatUint(uint64(sim.Settings.Seed), 10),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("simulation state saved", "tick", sim.LastTick, "nodes", sim.Board.Len(), "regions", sim.Atlas.Len())
	return nil
}

func saveNodes(ctx context.Context, tx *sqlx.Tx, nodes []*board.Node) error {
	stmt, err := tx.PreparexContext(ctx,
		"INSERT INTO nodes (id, tag, x, y, state_json) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nodes {
		data, err := board.MarshalState(n.State)
		if err != nil {
			return fmt.Errorf("encode node %d: %w", n.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, int64(n.ID), n.Tag().String(),
			n.Position.X, n.Position.Y, string(data)); err != nil {
			return fmt.Errorf("insert node %d: %w", n.ID, err)
		}
	}
	return nil
}

// HasState reports whether a simulation has been saved.
func (db *DB) HasState(ctx context.Context) (bool, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM nodes"); err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadSimulation rebuilds a saved simulation on top of settings st.
func (db *DB) LoadSimulation(ctx context.Context, st engine.Settings) (*engine.Simulation, error) {
	ok, err := db.HasState(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoState
	}

	meta, err := db.allMeta(ctx)
	if err != nil {
		return nil, err
	}
	if v, ok := meta[metaWorldSeed]; ok {
		seed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("meta %s: %w", metaWorldSeed, err)
		}
		st.Seed = uint32(seed)
	}
	if v, ok := meta[metaBaseBonus]; ok {
		if st.BaseCapacityBonus, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("meta %s: %w", metaBaseBonus, err)
		}
	}

	sim, err := engine.NewBlankSimulation(st)
	if err != nil {
		return nil, err
	}

	if err := db.loadNodes(ctx, sim.Board); err != nil {
		return nil, err
	}
	if err := db.loadRegions(ctx, sim.Atlas); err != nil {
		return nil, err
	}
	if err := db.loadLedger(ctx, sim.Ledger); err != nil {
		return nil, err
	}
	if err := db.loadCooldowns(ctx, sim.Producer.Cooldowns); err != nil {
		return nil, err
	}
	if sim.Events, err = db.RecentEvents(ctx, 1000); err != nil {
		return nil, err
	}

	if err := restoreMeta(sim, meta); err != nil {
		return nil, err
	}
	sim.Settle()

	slog.Info("simulation state loaded", "tick", sim.LastTick, "nodes", sim.Board.Len(), "regions", sim.Atlas.Len())
	return sim, nil
}

func (db *DB) loadNodes(ctx context.Context, b *board.Board) error {
	var rows []nodeRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT id, tag, x, y, state_json FROM nodes ORDER BY id"); err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}
	for _, r := range rows {
		tag, ok := board.TypeTagFromString(r.Tag)
		if !ok {
			return fmt.Errorf("node %d: unknown tag %q", r.ID, r.Tag)
		}
		s, err := board.UnmarshalState(tag, []byte(r.State))
		if err != nil {
			return fmt.Errorf("node %d: %w", r.ID, err)
		}
		n := &board.Node{ID: board.NodeID(r.ID), Position: board.Position{X: r.X, Y: r.Y}, State: s}
		if err := b.Insert(n); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadRegions(ctx context.Context, a *world.Atlas) error {
	var rows []regionRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, ord, source_seed, tier, display_name, accumulated FROM regions ORDER BY ord"); err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	for _, r := range rows {
		tier, ok := economy.ResourceKindFromString(r.Tier)
		if !ok {
			return fmt.Errorf("region %s: unknown tier %q", r.ID, r.Tier)
		}
		region := world.RestoreRegion(r.ID, uint32(r.SourceSeed), tier, r.Accumulated)
		if region.DisplayName != r.DisplayName {
			slog.Warn("region name drifted from seed", "region", r.ID, "saved", r.DisplayName, "derived", region.DisplayName)
		}
		a.Add(region)
	}
	return nil
}

func (db *DB) loadLedger(ctx context.Context, l *economy.Ledger) error {
	var rows []ledgerRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT kind, amount FROM ledger"); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	for _, r := range rows {
		k, ok := economy.ResourceKindFromString(r.Kind)
		if !ok {
			return fmt.Errorf("ledger: unknown kind %q", r.Kind)
		}
		l.Set(k, r.Amount)
	}
	return nil
}

func (db *DB) loadCooldowns(ctx context.Context, c engine.Cooldowns) error {
	var rows []cooldownRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT kind, remaining FROM cooldowns"); err != nil {
		return fmt.Errorf("load cooldowns: %w", err)
	}
	for _, r := range rows {
		k, ok := economy.ResourceKindFromString(r.Kind)
		if !ok {
			return fmt.Errorf("cooldowns: unknown kind %q", r.Kind)
		}
		c[k] = r.Remaining
	}
	return nil
}

func restoreMeta(sim *engine.Simulation, meta map[string]string) error {
	if v, ok := meta[metaTick]; ok {
		tick, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("meta %s: %w", metaTick, err)
		}
		sim.LastTick = tick
	}
	if v, ok := meta[metaProgress]; ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("meta %s: %w", metaProgress, err)
		}
		sim.Producer.Progress = p
	}
	if v, ok := meta[metaNextID]; ok {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("meta %s: %w", metaNextID, err)
		}
		sim.Board.SetNextID(board.NodeID(id))
	}
	if v, ok := meta[metaSelection]; ok && v != "0" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("meta %s: %w", metaSelection, err)
		}
		if err := sim.Board.Select(board.NodeID(id)); err != nil {
			slog.Warn("saved selection not on board", "node", id)
		}
	}
	if v, ok := meta[metaSeeds]; ok {
		var state [4]uint32
		if err := json.Unmarshal([]byte(v), &state); err != nil {
			return fmt.Errorf("meta %s: %w", metaSeeds, err)
		}
		sim.Seeds = entropy.RestoreStream(state)
	}
	return nil
}

func (db *DB) allMeta(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.SelectContext(ctx, &rows, "SELECT key, value FROM world_meta"); err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns sql.ErrNoRows.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// RecentEvents returns up to limit of the most recent events, oldest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.SelectContext(ctx, &events,
		`SELECT tick, description, category FROM
			(SELECT id, tick, description, category FROM events ORDER BY id DESC LIMIT ?)
		 ORDER BY id`,
		limit,
	)
	return events, err
}
