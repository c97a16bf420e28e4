package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"StrokeSentinel/internal/model"
)

// SQLiteRecorder persists strokes and signal snapshots to a SQLite database.
// Every row carries the run id of the process that wrote it.
type SQLiteRecorder struct {
	db    *sql.DB
	mu    sync.Mutex
	runID string
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, runID: uuid.NewString()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s (run %s)", dbPath, r.runID)
	return r, nil
}

// RunID identifies the rows written by this recorder.
func (r *SQLiteRecorder) RunID() string { return r.runID }

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS strokes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			freq        TEXT NOT NULL,
			stroke_id   INTEGER NOT NULL,
			direction   TEXT,
			start_time  INTEGER,
			end_time    INTEGER,
			start_price REAL,
			end_price   REAL,
			high        REAL,
			low         REAL,
			power       REAL,
			change      REAL,
			length      INTEGER,
			rsq         REAL,
			superseded  INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strokes_key ON strokes(symbol, freq, end_time)`,

		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			freq        TEXT NOT NULL,
			bar_time    INTEGER,
			close       REAL,
			bi_relation TEXT,
			zone        TEXT,
			end_fractal TEXT,
			fields      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_key ON signal_snapshots(symbol, freq, bar_time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	// databases created before strokes could be superseded
	return r.ensureColumn("strokes", "superseded", "INTEGER NOT NULL DEFAULT 0")
}

func (r *SQLiteRecorder) ensureColumn(table, column, decl string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			return fmt.Errorf("scan %s columns: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if _, err := r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	log.Printf("[INFO] sqlite: added column %s.%s", table, column)
	return nil
}

func (r *SQLiteRecorder) RecordStroke(freq string, s *model.Stroke) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO strokes
		(run_id, timestamp, symbol, freq, stroke_id, direction, start_time, end_time,
		 start_price, end_price, high, low, power, change, length, rsq)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.runID, time.Now().Unix(), s.Symbol, freq, int64(s.ID), string(s.Direction),
		s.Start().Unix(), s.End().Unix(), s.FxA.Fx, s.FxB.Fx,
		s.High, s.Low, s.Power, s.Change, s.Length, s.RSQ,
	)
	return err
}

// MarkSuperseded flags the rows this run wrote for the stroke.
func (r *SQLiteRecorder) MarkSuperseded(freq string, s *model.Stroke) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`UPDATE strokes SET superseded = 1
		WHERE run_id = ? AND symbol = ? AND freq = ? AND stroke_id = ?`,
		r.runID, s.Symbol, freq, int64(s.ID))
	return err
}

func (r *SQLiteRecorder) RecordSignals(freq string, v model.SignalVector) error {
	fields := make(map[string]interface{})
	for _, f := range v.Fields() {
		fields[f.Key] = f.Value
	}
	blob, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal signal fields: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO signal_snapshots
		(run_id, timestamp, symbol, freq, bar_time, close, bi_relation, zone, end_fractal, fields)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.runID, time.Now().Unix(), v.Symbol, freq, v.Time.Unix(), v.Close,
		string(v.BiRelation), string(v.Zone), string(v.EndFractal), string(blob),
	)
	return err
}

// RecentStrokes returns the newest strokes of a symbol and timeframe, newest first.
func (r *SQLiteRecorder) RecentStrokes(symbol, freq string, limit int) ([]StrokeRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, symbol, freq, stroke_id, direction, start_time, end_time,
		start_price, end_price, power, change, length, rsq, superseded
		FROM strokes WHERE symbol = ? AND freq = ? ORDER BY end_time DESC, id DESC LIMIT ?`,
		symbol, freq, limit)
	if err != nil {
		return nil, fmt.Errorf("query strokes: %w", err)
	}
	defer rows.Close()

	var out []StrokeRow
	for rows.Next() {
		var row StrokeRow
		var id, start, end int64
		var dir string
		var superseded int
		if err := rows.Scan(&row.RunID, &row.Symbol, &row.Freq, &id, &dir, &start, &end,
			&row.StartPrice, &row.EndPrice, &row.Power, &row.Change, &row.Length, &row.RSQ, &superseded); err != nil {
			return nil, fmt.Errorf("scan stroke: %w", err)
		}
		row.StrokeID = uint64(id)
		row.Direction = model.Direction(dir)
		row.Start = time.Unix(start, 0).UTC()
		row.End = time.Unix(end, 0).UTC()
		row.Superseded = superseded != 0
		out = append(out, row)
	}
	return out, rows.Err()
}

// LatestSignalFields returns the flattened fields of the newest signal snapshot.
func (r *SQLiteRecorder) LatestSignalFields(symbol, freq string) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var blob string
	err := r.db.QueryRow(`SELECT fields FROM signal_snapshots
		WHERE symbol = ? AND freq = ? ORDER BY bar_time DESC, id DESC LIMIT 1`, symbol, freq).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal([]byte(blob), &fields); err != nil {
		return nil, fmt.Errorf("decode signal fields: %w", err)
	}
	return fields, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
