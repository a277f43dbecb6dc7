package pipeline

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aluiziolira/go-scrape-play/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS batches (
	query    TEXT PRIMARY KEY,
	saved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	query           TEXT NOT NULL,
	position        INTEGER NOT NULL,
	search_query    TEXT NOT NULL,
	app_id          TEXT NOT NULL,
	dev_id          TEXT NOT NULL,
	description     TEXT NOT NULL,
	updated         TEXT NOT NULL,
	installations   TEXT NOT NULL,
	current_version TEXT NOT NULL,
	app_name        TEXT NOT NULL,
	PRIMARY KEY (query, position)
);`

// SQLiteStore keeps batches in a SQLite database, one row per entry.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Name() string {
	return "sqlite"
}

func (s *SQLiteStore) Load(query string) ([]*models.Entry, error) {
	var savedAt int64
	err := s.db.QueryRow(`SELECT saved_at FROM batches WHERE query = ?`, query).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, query)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup batch %q: %w", query, err)
	}

	rows, err := s.db.Query(`
		SELECT search_query, app_id, dev_id, description, updated, installations, current_version, app_name
		FROM entries WHERE query = ? ORDER BY position`, query)
	if err != nil {
		return nil, fmt.Errorf("query batch %q: %w", query, err)
	}
	defer rows.Close()

	entries := []*models.Entry{}
	for rows.Next() {
		e := &models.Entry{}
		if err := rows.Scan(&e.SearchQuery, &e.AppID, &e.DevID, &e.Desc, &e.Updated,
			&e.Installations, &e.CurrentVersion, &e.AppName); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read batch %q: %w", query, err)
	}
	return entries, nil
}

// Save replaces the stored batch for query in one transaction.
func (s *SQLiteStore) Save(query string, entries []*models.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE query = ?`, query); err != nil {
		return fmt.Errorf("clear batch %q: %w", query, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (query, position, search_query, app_id, dev_id, description,
			updated, installations, current_version, app_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if e == nil {
			continue
		}
		if _, err := stmt.Exec(query, i, e.SearchQuery, e.AppID, e.DevID, e.Desc,
			e.Updated, e.Installations, e.CurrentVersion, e.AppName); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.AppID, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO batches (query, saved_at) VALUES (?, ?)
		ON CONFLICT(query) DO UPDATE SET saved_at = excluded.saved_at`,
		query, time.Now().Unix()); err != nil {
		return fmt.Errorf("record batch %q: %w", query, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch %q: %w", query, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
