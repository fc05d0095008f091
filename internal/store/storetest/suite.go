// Package storetest holds a compliance suite shared by every store driver.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated store from
// makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Unique scopes keep this suite re-runnable against shared databases.
	scopeA := "chat-" + uuid.New().String()
	scopeB := "chat-" + uuid.New().String()

	submitted := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	mk := func(scope, user, character string, at time.Time, chars, pts int) *model.Post {
		return &model.Post{
			ChatScope:     scope,
			UserID:        user,
			DisplayName:   "@" + user,
			CharacterName: character,
			SubmittedAt:   at,
			CharCount:     chars,
			Points:        pts,
		}
	}

	p1, err := s.Posts().Insert(ctx, mk(scopeA, "alice", "morgana", submitted, 1200, 3))
	if err != nil {
		t.Fatalf("Insert p1: %v", err)
	}
	if p1.ID == 0 {
		t.Fatalf("Insert p1: no id assigned")
	}
	if p1.CreatedAt.IsZero() {
		t.Fatalf("Insert p1: no created_at assigned")
	}
	if !p1.SubmittedAt.Equal(submitted) {
		t.Fatalf("Insert p1: submitted_at mutated: %v", p1.SubmittedAt)
	}

	p2, err := s.Posts().Insert(ctx, mk(scopeA, "bob", "garrus", submitted.Add(time.Hour), 300, 1))
	if err != nil {
		t.Fatalf("Insert p2: %v", err)
	}
	if p2.ID <= p1.ID {
		t.Fatalf("ids not monotonic: p1=%d p2=%d", p1.ID, p2.ID)
	}
	if _, err := s.Posts().Insert(ctx, mk(scopeB, "alice", "morgana", submitted, 700, 2)); err != nil {
		t.Fatalf("Insert scopeB: %v", err)
	}

	// Scoped read returns only scopeA rows, in insertion order, with
	// submitted_at preserved exactly.
	lst, err := s.Posts().List(ctx, model.ListPostsRequest{ChatScope: scopeA})
	if err != nil {
		t.Fatalf("List scopeA: %v", err)
	}
	if len(lst) != 2 {
		t.Fatalf("List scopeA: n=%d want 2", len(lst))
	}
	if lst[0].ID != p1.ID || lst[1].ID != p2.ID {
		t.Fatalf("List scopeA: order %d,%d want %d,%d", lst[0].ID, lst[1].ID, p1.ID, p2.ID)
	}
	if !lst[0].SubmittedAt.Equal(submitted) {
		t.Fatalf("List scopeA: submitted_at round-trip: got %v want %v", lst[0].SubmittedAt, submitted)
	}
	if lst[0].CharacterName != "morgana" || lst[0].CharCount != 1200 || lst[0].Points != 3 {
		t.Fatalf("List scopeA: row fidelity: %+v", lst[0])
	}

	// User filter.
	byUser, err := s.Posts().List(ctx, model.ListPostsRequest{ChatScope: scopeA, UserID: "alice"})
	if err != nil {
		t.Fatalf("List by user: %v", err)
	}
	if len(byUser) != 1 || byUser[0].UserID != "alice" {
		t.Fatalf("List by user: got %d rows", len(byUser))
	}

	// Scoped delete reports the exact count and leaves other scopes intact.
	n, err := s.Posts().DeleteByScope(ctx, scopeA)
	if err != nil {
		t.Fatalf("DeleteByScope: %v", err)
	}
	if n != 2 {
		t.Fatalf("DeleteByScope: n=%d want 2", n)
	}
	if lst, err := s.Posts().List(ctx, model.ListPostsRequest{ChatScope: scopeA}); err != nil || len(lst) != 0 {
		t.Fatalf("List after delete: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Posts().List(ctx, model.ListPostsRequest{ChatScope: scopeB}); err != nil || len(lst) != 1 {
		t.Fatalf("List scopeB after delete: n=%d err=%v", len(lst), err)
	}

	// Deleting an empty scope is a zero-count no-op, not an error.
	if n, err := s.Posts().DeleteByScope(ctx, scopeA); err != nil || n != 0 {
		t.Fatalf("DeleteByScope empty: n=%d err=%v", n, err)
	}
}
