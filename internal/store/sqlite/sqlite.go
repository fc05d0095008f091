// Package sqlite implements the ledger store on SQLite (modernc driver),
// used for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode for better read concurrency.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &sqStore{db: db} }

type sqStore struct{ db *sql.DB }

func (s *sqStore) Posts() store.Posts { return &posts{db: s.db} }

// HealthPing implements health.Pinger for the SQLite-backed store.
func (s *sqStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the posts table and its indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            chat_scope TEXT NOT NULL,
            user_id TEXT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            character_name TEXT NOT NULL,
            submitted_at TIMESTAMP NOT NULL,
            char_count INTEGER NOT NULL DEFAULT 0,
            points INTEGER NOT NULL DEFAULT 1,
            created_at TIMESTAMP NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_posts_scope_user ON posts (chat_scope, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_submitted ON posts (chat_scope, submitted_at)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

type posts struct{ db *sql.DB }

func (p *posts) Insert(ctx context.Context, m *model.Post) (*model.Post, error) {
	// SQLite has no RETURNING-assigned clock; stamp created_at here.
	created := time.Now().UTC()
	res, err := p.db.ExecContext(ctx, `
        INSERT INTO posts (chat_scope, user_id, display_name, character_name, submitted_at, char_count, points, created_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, m.ChatScope, m.UserID, m.DisplayName, m.CharacterName, m.SubmittedAt, m.CharCount, m.Points, created)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = created
	return &out, nil
}

func (p *posts) List(ctx context.Context, req model.ListPostsRequest) ([]*model.Post, error) {
	query := `SELECT id, chat_scope, user_id, display_name, character_name, submitted_at, char_count, points, created_at
              FROM posts WHERE chat_scope=?`
	args := []interface{}{req.ChatScope}
	if req.UserID != "" {
		query += ` AND user_id=?`
		args = append(args, req.UserID)
	}
	query += ` ORDER BY id ASC`
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Post
	for rows.Next() {
		var m model.Post
		if err := rows.Scan(&m.ID, &m.ChatScope, &m.UserID, &m.DisplayName, &m.CharacterName, &m.SubmittedAt, &m.CharCount, &m.Points, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (p *posts) DeleteByScope(ctx context.Context, chatScope string) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM posts WHERE chat_scope=?`, chatScope)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
