package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades the log from version-1 to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order on open. schema.sql is the version 0 layout.
var migrations = []migration{
	{
		version: 1,
		name:    "instance indexes",
		stmt: `
			CREATE INDEX IF NOT EXISTS idx_behaviour_events_instance
			ON behaviour_events(instance_id, seq);
			CREATE INDEX IF NOT EXISTS idx_property_events_instance
			ON property_events(instance_id, seq);
		`,
	},
}

// SchemaVersion is the user_version of a fully migrated event log.
var SchemaVersion = migrations[len(migrations)-1].version

// Store is a SQLite-backed behaviour and property event log.
type Store struct {
	db       *sql.DB
	readOnly bool
}

type openConfig struct {
	busyTimeout time.Duration
	readOnly    bool
}

// Option configures Open.
type Option func(*openConfig)

// WithBusyTimeout sets how long a connection waits on a locked database.
// The default is five seconds.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *openConfig) {
		c.busyTimeout = d
	}
}

// ReadOnly opens an existing log without creating or migrating it. Opening
// a missing file fails.
func ReadOnly() Option {
	return func(c *openConfig) {
		c.readOnly = true
	}
}

// Open creates or opens the event log at path. Writable logs are put in WAL
// mode and migrated to SchemaVersion. A read-only log must already be at
// SchemaVersion.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := openConfig{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := path
	if cfg.readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, readOnly: cfg.readOnly}
	if err := s.init(cfg); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(cfg openConfig) error {
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if cfg.readOnly {
		version, err := s.userVersion()
		if err != nil {
			return err
		}
		if version != SchemaVersion {
			return fmt.Errorf("event log schema version %d, want %d", version, SchemaVersion)
		}
		return nil
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragmas: %q: %w", pragma, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return s.migrate()
}

// migrate applies each pending migration and its version bump in one
// transaction.
func (s *Store) migrate() error {
	version, err := s.userVersion()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: set user_version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	return nil
}

func (s *Store) userVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LastSeq returns the highest seq in the log, or 0 for an empty log.
// The runtime resumes its clock from here when appending to an existing log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM behaviour_events
			UNION ALL
			SELECT seq FROM property_events
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
