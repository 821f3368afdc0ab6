package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark4carter/codewarsbot/internal/domain"
	_ "modernc.org/sqlite"
)

// seedJokesFile holds the starter joke set, one joke per line. It is
// loaded into the jokes table the first time the database is created.
//
//go:embed jokes.txt
var seedJokesFile string

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := store.seedJokes(); err != nil {
		return nil, fmt.Errorf("seed jokes: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		language TEXT NOT NULL,
		strategy TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jokes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		joke TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS info (
		name TEXT PRIMARY KEY,
		val TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// seedJokes loads the embedded starter jokes when the table is empty, so
// a fresh install can tell jokes right away.
func (s *SQLiteStore) seedJokes() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM jokes`).Scan(&count); err != nil {
		return fmt.Errorf("count jokes: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, joke := range strings.Split(seedJokesFile, "\n") {
		joke = strings.TrimSpace(joke)
		if joke == "" {
			continue
		}
		if _, err := s.db.Exec(`INSERT INTO jokes (joke) VALUES (?)`, joke); err != nil {
			return fmt.Errorf("insert seed joke: %w", err)
		}
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadSettings retrieves the installation settings record.
func (s *SQLiteStore) LoadSettings(ctx context.Context) (*domain.Settings, error) {
	query := `SELECT token, language, strategy FROM settings WHERE id = 1`

	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.Token, &settings.Language, &settings.Strategy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("scan settings row: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, ErrNotConfigured
	}

	return &settings, nil
}

// SaveSettings validates and atomically replaces the settings record.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	query := `
	INSERT INTO settings (id, token, language, strategy, updated_at)
	VALUES (1, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		token = excluded.token,
		language = excluded.language,
		strategy = excluded.strategy,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		settings.Token, settings.Language, settings.Strategy, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// RandomJoke returns a joke, preferring the least-used rows, and bumps
// its usage counter.
func (s *SQLiteStore) RandomJoke(ctx context.Context) (string, error) {
	query := `SELECT id, joke FROM jokes ORDER BY used ASC, RANDOM() LIMIT 1`

	var id int64
	var joke string
	err := s.db.QueryRowContext(ctx, query).Scan(&id, &joke)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no jokes loaded")
	}
	if err != nil {
		return "", fmt.Errorf("scan joke row: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE jokes SET used = used + 1 WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("bump joke usage: %w", err)
	}

	return joke, nil
}

// AddJoke inserts a joke into the rotation.
func (s *SQLiteStore) AddJoke(ctx context.Context, joke string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO jokes (joke) VALUES (?)`, joke); err != nil {
		return fmt.Errorf("insert joke: %w", err)
	}
	return nil
}

// LastRun returns the recorded last startup time.
func (s *SQLiteStore) LastRun(ctx context.Context) (time.Time, bool, error) {
	query := `SELECT val FROM info WHERE name = 'lastrun' LIMIT 1`

	var val string
	err := s.db.QueryRowContext(ctx, query).Scan(&val)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("scan lastrun row: %w", err)
	}

	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse lastrun value: %w", err)
	}
	return t, true, nil
}

// TouchLastRun records now as the last startup time.
func (s *SQLiteStore) TouchLastRun(ctx context.Context, now time.Time) error {
	query := `
	INSERT INTO info (name, val) VALUES ('lastrun', ?)
	ON CONFLICT(name) DO UPDATE SET val = excluded.val`

	if _, err := s.db.ExecContext(ctx, query, now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert lastrun: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
