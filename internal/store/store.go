// Package store persists client records and chat transcripts in SQLite. The
// in-memory queue is the authoritative view of live state; the store trails
// it and survives restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codefionn/warteraum/internal/chat"
	"github.com/codefionn/warteraum/internal/logger"
)

// Store is the SQLite-backed implementation of chat.Store.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT,
		status TEXT NOT NULL DEFAULT 'waiting',
		attendant_id TEXT,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT,
		type TEXT NOT NULL DEFAULT 'text',
		reply_to TEXT,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_clients_status ON clients(status, timestamp);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create initial schema: %w", err)
	}
	return nil
}

// SaveClient inserts or replaces a client record.
func (s *Store) SaveClient(ctx context.Context, c chat.Client) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO clients (id, name, status, attendant_id, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		string(c.ID), c.Name, string(c.Status), nullable(string(c.Attendant)), c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save client %s: %w", c.ID, err)
	}
	return nil
}

// SaveMessage appends a message to its chat's transcript.
func (s *Store) SaveMessage(ctx context.Context, m chat.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, sender, text, type, reply_to, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(m.ChatID), string(m.Sender), m.Text, string(m.Kind),
		nullable(m.ReplyTo), m.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", m.ID, err)
	}
	return nil
}

// Messages returns a chat's transcript in timestamp order. A chat with no
// stored messages (including one purged by retention) yields an empty slice.
func (s *Store) Messages(ctx context.Context, chatID chat.ConnID) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, sender, text, type, reply_to, timestamp
		 FROM messages WHERE chat_id = ? ORDER BY timestamp ASC`,
		string(chatID))
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for chat %s: %w", chatID, err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var m chat.Message
		var chatIDCol, replyTo sql.NullString
		if err := rows.Scan(&m.ID, &chatIDCol, &m.Sender, &m.Text, &m.Kind, &replyTo, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		m.ChatID = chat.ConnID(chatIDCol.String)
		m.ReplyTo = replyTo.String
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

// LoadClients returns every stored client record, for rebuilding the
// in-memory queue at startup.
func (s *Store) LoadClients(ctx context.Context) ([]chat.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, attendant_id, timestamp FROM clients ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]chat.Client, 0)
	for rows.Next() {
		var c chat.Client
		var name, attendant sql.NullString
		if err := rows.Scan(&c.ID, &name, &c.Status, &attendant, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		c.Name = name.String
		c.Attendant = chat.ConnID(attendant.String)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate client rows: %w", err)
	}
	return clients, nil
}

// PurgeOlderThan deletes clients and messages whose timestamp is older than
// age. Returns the number of deleted rows across both tables.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration, now time.Time) (int64, error) {
	cutoff := chat.Millis(now.Add(-age))

	var total int64
	for _, table := range []string{"clients", "messages"} {
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to purge %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// SweepLoop runs the retention purge at the given interval until ctx is done.
func (s *Store) SweepLoop(ctx context.Context, interval, age time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeOlderThan(ctx, age, time.Now())
			if err != nil {
				logger.Error("Retention sweep failed: %v", err)
				continue
			}
			if n > 0 {
				logger.Info("Retention sweep purged %d rows", n)
			}
		}
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
