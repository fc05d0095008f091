package model

import "time"

// Post is one scored submission. Posts are immutable once stored: they are
// created by an accepted submit, and removed only by a scoped bulk delete.
type Post struct {
	ID            int64     `json:"id"`
	ChatScope     string    `json:"chat_scope"`
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	CharacterName string    `json:"character_name"`
	SubmittedAt   time.Time `json:"submitted_at"`
	CharCount     int       `json:"char_count"`
	Points        int       `json:"points"`
	CreatedAt     time.Time `json:"created_at"`
}

// Author identifies who submitted a post.
type Author struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// AggregatedCharacter holds rollup totals for one (user, character) pair
// within a query scope and period.
type AggregatedCharacter struct {
	Name       string `json:"name"`
	PostCount  int    `json:"post_count"`
	CharTotal  int64  `json:"char_total"`
	PointTotal int64  `json:"point_total"`
}

// AggregatedUser holds one user's rollup over a scope and period. Characters
// are sorted by point total descending, ties kept in first-seen order.
type AggregatedUser struct {
	UserID      string                 `json:"user_id"`
	DisplayName string                 `json:"display_name"`
	PostCount   int                    `json:"post_count"`
	CharTotal   int64                  `json:"char_total"`
	PointTotal  int64                  `json:"point_total"`
	Characters  []*AggregatedCharacter `json:"characters"`
}

// Snapshot is a complete, self-describing export of one chat's ledger.
type Snapshot struct {
	ChatScope  string    `json:"chat_scope"`
	CreatedAt  time.Time `json:"created_at"`
	TotalPosts int       `json:"total_posts"`
	Posts      []*Post   `json:"posts"`
}

// RestoreSummary is surfaced after snapshot validation; the caller must echo
// the token back to confirm the destructive replace.
type RestoreSummary struct {
	ChatScope  string    `json:"chat_scope"`
	TotalPosts int       `json:"total_posts"`
	BackupTime time.Time `json:"backup_time"`
	Sample     *Post     `json:"sample,omitempty"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RestoreReport is the terminal accounting of a restore batch.
type RestoreReport struct {
	DeletedCount    int `json:"deleted_count"`
	RestoredCount   int `json:"restored_count"`
	ErrorCount      int `json:"error_count"`
	TotalInSnapshot int `json:"total_in_snapshot"`
}

// ScopeStats summarizes a chat's whole ledger.
type ScopeStats struct {
	TotalPosts       int `json:"total_posts"`
	UniqueUsers      int `json:"unique_users"`
	UniqueCharacters int `json:"unique_characters"`
}

// ListPostsRequest captures filters used when reading a chat's ledger.
// UserID narrows the read to one author; empty means the whole scope.
type ListPostsRequest struct {
	ChatScope string
	UserID    string
}
