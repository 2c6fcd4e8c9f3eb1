// Package journal records processed-message outcomes in a local SQLite
// database for operator auditing. The pipeline only ever writes to it;
// nothing reads it back during processing.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Entry is one processed message's recorded outcome. Category is
// "none" for no-action messages; the item fields stay blank unless a
// work item was created.
type Entry struct {
	ID        string    `db:"id"`
	CycleID   string    `db:"cycle_id"`
	Sender    string    `db:"sender"`
	Subject   string    `db:"subject"`
	Category  string    `db:"category"`
	ItemID    string    `db:"item_id"`
	ItemURL   string    `db:"item_url"`
	State     string    `db:"state"`
	Success   bool      `db:"success"`
	CreatedAt time.Time `db:"created_at"`
}

// Journal is a SQLite-backed submission log.
type Journal struct {
	db *sqlx.DB
}

// Open opens (or creates) the journal database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func Open(dbPath string) (*Journal, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	j := &Journal{db: db}
	if err := j.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one entry. A zero ID or CreatedAt is filled in.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Category == "" {
		e.Category = "none"
	}

	_, err := j.db.NamedExecContext(ctx, `
INSERT INTO submissions
	(id, cycle_id, sender, subject, category, item_id, item_url, state, success, created_at)
VALUES
	(:id, :cycle_id, :sender, :subject, :category, :item_id, :item_url, :state, :success, :created_at)
`, e)
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := j.db.SelectContext(ctx, &entries, `
SELECT id, cycle_id, sender, subject, category, item_id, item_url, state, success, created_at
FROM submissions
ORDER BY created_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return entries, nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (j *Journal) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := j.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = j.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := j.db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_version (version) VALUES (?)", m.version,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}
