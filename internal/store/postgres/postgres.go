// Package postgres implements the ledger store on PostgreSQL via the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Posts() store.Posts { return &posts{db: s.db} }

// HealthPing implements health.Pinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the posts table and its indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
            id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
            chat_scope TEXT NOT NULL,
            user_id TEXT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            character_name TEXT NOT NULL,
            submitted_at TIMESTAMPTZ NOT NULL,
            char_count INT NOT NULL DEFAULT 0,
            points INT NOT NULL DEFAULT 1,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO posts (chat_scope, user_id, display_name, character_name, submitted_at, char_count, points)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at
    `, m.ChatScope, m.UserID, m.DisplayName, m.CharacterName, m.SubmittedAt, m.CharCount, m.Points)
	out := *m
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *posts) List(ctx context.Context, req model.ListPostsRequest) ([]*model.Post, error) {
	query := `SELECT id, chat_scope, user_id, display_name, character_name, submitted_at, char_count, points, created_at
              FROM posts WHERE chat_scope=$1`
	args := []interface{}{req.ChatScope}
	if req.UserID != "" {
		query += ` AND user_id=$2`
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
	res, err := p.db.ExecContext(ctx, `DELETE FROM posts WHERE chat_scope=$1`, chatScope)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
