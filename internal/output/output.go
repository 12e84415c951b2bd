// Package output persists run results: an SQLite run database holding
// initial/final snapshots and the continuous per-update time series, plus
// JSON snapshot files and the optional merged-configuration record.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// Stages of a run a snapshot can capture.
const (
	StageInitial = "initial"
	StageFinal   = "final"
)

// Options selects which artifacts a run writes.
type Options struct {
	Dir         string
	Initial     bool
	Continuous  bool
	Final       bool
	MergedCfg   bool
	GridExport  bool
}

// Writer persists simulation state for one run, identified by a fresh UUID.
type Writer struct {
	db    *sqlx.DB
	runID string
	opts  Options
	store *store.Store
}

// NewWriter creates the output directory, opens the run database and
// registers a new run row.
func NewWriter(opts Options, st *store.Store) (*Writer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(opts.Dir, "run.db")
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}

	w := &Writer{db: db, runID: uuid.NewString(), opts: opts, store: st}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run database: %w", err)
	}

	if _, err := db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		w.runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		db.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}
	return w, nil
}

// RunID returns the run's identifier.
func (w *Writer) RunID() string {
	return w.runID
}

// Close closes the run database.
func (w *Writer) Close() error {
	return w.db.Close()
}

func (w *Writer) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		time_index INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (run_id, stage)
	);

	CREATE TABLE IF NOT EXISTS series (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		time_index INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		variable TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_series_run_var ON series (run_id, variable, time_index);
	`
	_, err := w.db.Exec(schema)
	return err
}

// variablePayload is the serialized form of one stored array.
type variablePayload struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (w *Writer) snapshotPayload() (map[string]variablePayload, error) {
	out := make(map[string]variablePayload)
	for _, name := range w.store.Names() {
		data, err := w.store.Get(name)
		if err != nil {
			return nil, err
		}
		shape, err := w.store.Shape(name)
		if err != nil {
			return nil, err
		}
		// Copy: the snapshot must not alias the live arrays.
		frozen := make([]float64, len(data))
		copy(frozen, data)
		out[name] = variablePayload{Shape: shape, Data: frozen}
	}
	return out, nil
}

// WriteSnapshot captures the full data store at a stage, into both the run
// database and a JSON file in the output directory.
func (w *Writer) WriteSnapshot(stage string, timeIndex int) error {
	if stage == StageInitial && !w.opts.Initial {
		return nil
	}
	if stage == StageFinal && !w.opts.Final {
		return nil
	}

	payload, err := w.snapshotPayload()
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", stage, err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", stage, err)
	}

	if _, err := w.db.Exec(
		`INSERT OR REPLACE INTO snapshots (run_id, stage, time_index, payload) VALUES (?, ?, ?, ?)`,
		w.runID, stage, timeIndex, string(raw)); err != nil {
		return fmt.Errorf("snapshot %s: %w", stage, err)
	}

	file := filepath.Join(w.opts.Dir, stage+"_state.json")
	if err := os.WriteFile(file, raw, 0o644); err != nil {
		return fmt.Errorf("snapshot %s: %w", stage, err)
	}
	return nil
}

// WriteSeries appends one time-series row per updated variable for a tick.
func (w *Writer) WriteSeries(timeIndex int, stamp time.Time, variables []string) error {
	if !w.opts.Continuous {
		return nil
	}

	tx, err := w.db.Beginx()
	if err != nil {
		return fmt.Errorf("series at step %d: %w", timeIndex, err)
	}
	defer tx.Rollback()

	for _, name := range variables {
		data, err := w.store.Get(name)
		if err != nil {
			return fmt.Errorf("series at step %d: %w", timeIndex, err)
		}
		shape, _ := w.store.Shape(name)
		raw, err := json.Marshal(variablePayload{Shape: shape, Data: data})
		if err != nil {
			return fmt.Errorf("series at step %d: %w", timeIndex, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO series (run_id, time_index, timestamp, variable, payload) VALUES (?, ?, ?, ?, ?)`,
			w.runID, timeIndex, stamp.UTC().Format(time.RFC3339), name, string(raw)); err != nil {
			return fmt.Errorf("series at step %d: %w", timeIndex, err)
		}
	}
	return tx.Commit()
}

// SeriesCount returns the number of series rows recorded for a variable.
// Used by tests and the progress report.
func (w *Writer) SeriesCount(variable string) (int, error) {
	var n int
	err := w.db.Get(&n, `SELECT COUNT(*) FROM series WHERE run_id = ? AND variable = ?`, w.runID, variable)
	return n, err
}
