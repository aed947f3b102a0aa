package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/korjavin/integralsheet/models"
)

// DB handles all database operations
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; workers queue on the pool instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err = createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS solution_cache (
			cache_key TEXT PRIMARY KEY,
			exact TEXT NOT NULL,
			decimal REAL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			total INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			errors TEXT NOT NULL
		)
	`)
	return err
}

// CacheKey identifies an integral by its integrand and its integrals in
// evaluation order. Two exercises with the same key have the same solution.
func CacheKey(ex *models.Exercise) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(ex.Function))
	for _, in := range ex.SortedIntegrals() {
		b.WriteString("|")
		b.WriteString(in.Variable)
		b.WriteString(":")
		b.WriteString(strings.TrimSpace(in.Limits.Lower))
		b.WriteString(":")
		b.WriteString(strings.TrimSpace(in.Limits.Upper))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// CacheSolution stores a solved integral
func (db *DB) CacheSolution(key, exact string, decimal *float64) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO solution_cache (cache_key, exact, decimal, created_at) VALUES (?, ?, ?, ?)",
		key, exact, decimal, time.Now().Unix(),
	)
	return err
}

// GetCachedSolution retrieves a cached solution. A miss is not an error.
func (db *DB) GetCachedSolution(key string) (exact string, decimal *float64, ok bool, err error) {
	var d sql.NullFloat64
	err = db.conn.QueryRow(
		"SELECT exact, decimal FROM solution_cache WHERE cache_key = ?",
		key,
	).Scan(&exact, &d)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, err
	}
	if d.Valid {
		decimal = &d.Float64
	}
	return exact, decimal, true, nil
}

// SaveRun records a processed assignment
func (db *DB) SaveRun(run models.Run) error {
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	encoded, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, source, started_at, duration_ms, total, failed, errors) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Source, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.Total, run.Failed, string(encoded),
	)
	return err
}

// GetRunStats sums up the run history
func (db *DB) GetRunStats() (models.RunStats, error) {
	var stats models.RunStats
	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(failed), 0) FROM runs",
	).Scan(&stats.Runs, &stats.Exercises, &stats.Failed)
	return stats, err
}

// RecentRuns returns the latest runs, newest first
func (db *DB) RecentRuns(limit int) ([]models.Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, source, started_at, duration_ms, total, failed, errors
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Run
	for rows.Next() {
		var (
			run        models.Run
			startedAt  int64
			durationMS int64
			errs       string
		)
		if err := rows.Scan(&run.ID, &run.Source, &startedAt, &durationMS, &run.Total, &run.Failed, &errs); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(startedAt, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
			return nil, err
		}
		result = append(result, run)
	}

	return result, rows.Err()
}
