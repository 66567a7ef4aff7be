package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wricardo/mcp-training/slpu/game/runs/migrations"
	"github.com/wricardo/mcp-training/slpu/game/service"
)

const migrationTable = "schema_migrations"

const runColumns = `id, request_id, source, profile, board_width, board_height, board_size,
	transitions, rolls, coverage, winner, attempts, qualifying, early_stop, seed,
	duration_ns, error, error_kind, created_at`

// SQLitePersistence implements Persistence on a SQLite database
type SQLitePersistence struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite run store and applies embedded migrations.
// The path ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLitePersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLitePersistence{db: db}, nil
}

// Close closes the SQLite handle
func (s *SQLitePersistence) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces a run
func (s *SQLitePersistence) Save(run *service.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		return ErrInvalidRunID
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   request_id = excluded.request_id,
		   source = excluded.source,
		   profile = excluded.profile,
		   board_width = excluded.board_width,
		   board_height = excluded.board_height,
		   board_size = excluded.board_size,
		   transitions = excluded.transitions,
		   rolls = excluded.rolls,
		   coverage = excluded.coverage,
		   winner = excluded.winner,
		   attempts = excluded.attempts,
		   qualifying = excluded.qualifying,
		   early_stop = excluded.early_stop,
		   seed = excluded.seed,
		   duration_ns = excluded.duration_ns,
		   error = excluded.error,
		   error_kind = excluded.error_kind,
		   created_at = excluded.created_at`,
		run.ID,
		run.RequestID,
		run.Source,
		run.Profile,
		run.BoardWidth,
		run.BoardHeight,
		run.BoardSize,
		run.Transitions,
		run.Rolls,
		run.Coverage,
		run.Winner,
		run.Attempts,
		run.Qualifying,
		run.EarlyStop,
		run.Seed,
		int64(run.Duration),
		run.Error,
		run.ErrorKind,
		run.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Load retrieves a run by ID
func (s *SQLitePersistence) Load(id string) (*service.Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	var (
		run       service.Run
		duration  int64
		createdAt int64
	)
	err := row.Scan(
		&run.ID,
		&run.RequestID,
		&run.Source,
		&run.Profile,
		&run.BoardWidth,
		&run.BoardHeight,
		&run.BoardSize,
		&run.Transitions,
		&run.Rolls,
		&run.Coverage,
		&run.Winner,
		&run.Attempts,
		&run.Qualifying,
		&run.EarlyStop,
		&run.Seed,
		&duration,
		&run.Error,
		&run.ErrorKind,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrRunNotFound
		}
		return nil, fmt.Errorf("load run: %w", err)
	}

	run.Duration = time.Duration(duration)
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return &run, nil
}

// Delete removes a run
func (s *SQLitePersistence) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return service.ErrRunNotFound
	}
	return nil
}

// ListAll returns all stored run IDs, oldest first
func (s *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a run is stored
func (s *SQLitePersistence) Exists(id string) bool {
	var found int
	err := s.db.QueryRow(`SELECT 1 FROM runs WHERE id = ?`, id).Scan(&found)
	return err == nil
}

// applyMigrations executes each embedded .sql file at most once
func applyMigrations(db *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := db.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			file,
			time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}

	return nil
}
