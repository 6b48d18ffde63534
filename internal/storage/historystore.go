package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS standups (
	id TEXT PRIMARY KEY,
	date TEXT NOT NULL,
	summary TEXT NOT NULL,
	raw_data TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_standups_created_at ON standups(created_at);
`

// HistoryManager persists generated standups so later runs can reference
// recent summaries for continuity.
type HistoryManager interface {
	// Save records a standup summary for today along with the raw
	// collected data that produced it.
	Save(summary string, rawData map[string]any) (*models.StandupEntry, error)

	// Recent returns up to limit standups, newest first.
	Recent(limit int) ([]*models.StandupEntry, error)

	// Prune deletes standups older than daysToKeep, returning the number
	// removed.
	Prune(daysToKeep int) (int, error)

	Close() error
}

type sqliteHistory struct {
	db *sql.DB
}

// NewHistoryStore opens (creating if needed) the standup history database
// at dbPath.
func NewHistoryStore(dbPath string) (HistoryManager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &sqliteHistory{db: db}, nil
}

func (h *sqliteHistory) Save(summary string, rawData map[string]any) (*models.StandupEntry, error) {
	now := time.Now().UTC()
	entry := &models.StandupEntry{
		ID:        newID(),
		Date:      now.Format("2006-01-02"),
		Summary:   summary,
		RawData:   rawData,
		CreatedAt: now,
	}

	var raw []byte
	if rawData != nil {
		var err error
		if raw, err = json.Marshal(rawData); err != nil {
			return nil, fmt.Errorf("encoding standup raw data: %w", err)
		}
	}

	if _, err := h.db.Exec(
		`INSERT INTO standups (id, date, summary, raw_data, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Date, entry.Summary, nullableString(raw), now.Format(sqliteTimeFormat),
	); err != nil {
		return nil, fmt.Errorf("saving standup: %w", err)
	}

	return entry, nil
}

func (h *sqliteHistory) Recent(limit int) ([]*models.StandupEntry, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := h.db.Query(
		`SELECT id, date, summary, raw_data, created_at FROM standups ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent standups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.StandupEntry
	for rows.Next() {
		var (
			e         models.StandupEntry
			raw       sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.Summary, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning standup row: %w", err)
		}
		if raw.Valid && raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &e.RawData); err != nil {
				return nil, fmt.Errorf("decoding standup raw data: %w", err)
			}
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing standup created_at: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func (h *sqliteHistory) Prune(daysToKeep int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)

	res, err := h.db.Exec(
		`DELETE FROM standups WHERE created_at < ?`,
		cutoff.Format(sqliteTimeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning standup history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning standup history: %w", err)
	}
	return int(n), nil
}

func (h *sqliteHistory) Close() error {
	return h.db.Close()
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
