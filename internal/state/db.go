// Package state persists an audit ledger of runs and executed moves in
// sqlite, consulted by the history command.
package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func Connect(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		inbox TEXT,
		dry_run INTEGER
	);
	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		src TEXT,
		dest TEXT,
		dest_root TEXT,
		subpath TEXT,
		owner TEXT,
		created_at DATETIME
	);`
	_, err := db.Exec(schema)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

type Session struct {
	ID        string
	CreatedAt time.Time
	Inbox     string
	DryRun    bool
}

type Move struct {
	ID        int64
	SessionID string
	Src       string
	Dest      string
	DestRoot  string
	Subpath   string
	Owner     string
	CreatedAt time.Time
}

func (db *DB) CreateSession(ctx context.Context, inbox string, dryRun bool) (*Session, error) {
	s := &Session{ID: uuid.NewString(), CreatedAt: time.Now(), Inbox: inbox, DryRun: dryRun}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, inbox, dry_run) VALUES (?, ?, ?, ?)",
		s.ID, s.CreatedAt, s.Inbox, boolToInt(s.DryRun))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) RecordMove(ctx context.Context, sessionID string, m Move) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO moves (session_id, src, dest, dest_root, subpath, owner, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		sessionID, m.Src, m.Dest, m.DestRoot, m.Subpath, m.Owner, time.Now())
	return err
}

// ListMoves returns the most recent executed moves, newest first.
func (db *DB) ListMoves(ctx context.Context, limit int) ([]Move, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, session_id, src, dest, dest_root, subpath, owner, created_at FROM moves ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var moves []Move
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Src, &m.Dest, &m.DestRoot, &m.Subpath, &m.Owner, &m.CreatedAt); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
