package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/scoring"
	"github.com/postledger/postledger/internal/store"
)

const defaultConfirmTTL = 10 * time.Minute

// BackupService exports chat ledgers as portable snapshots and restores
// them behind an explicit confirmation step. Export is read-only and always
// safe. Import walks FileReceived → Validated → ConfirmationPending →
// Restoring; the destructive delete phase never runs without a validated
// snapshot and a matching, unexpired confirmation token for the same scope.
type BackupService struct {
	store   store.Store
	locks   *ScopeLocks
	timeout time.Duration
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingRestore
}

// pendingRestore is the ConfirmationPending state for one chat scope. It is
// consumed exactly once, by confirmation or discard, or evicted on expiry.
type pendingRestore struct {
	token     string
	snapshot  *model.Snapshot
	expiresAt time.Time
}

func NewBackupService(s store.Store, locks *ScopeLocks, storeTimeout, confirmTTL time.Duration) *BackupService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	if confirmTTL <= 0 {
		confirmTTL = defaultConfirmTTL
	}
	return &BackupService{
		store:   s,
		locks:   locks,
		timeout: storeTimeout,
		ttl:     confirmTTL,
		now:     time.Now,
		pending: make(map[string]*pendingRestore),
	}
}

// Export reads the whole ledger for a chat scope and wraps it into a
// snapshot. The service holds no post-export state.
func (b *BackupService) Export(ctx context.Context, chatScope string) (*model.Snapshot, error) {
	if chatScope == "" {
		return nil, fmt.Errorf("%w: chat scope is required", model.ErrValidation)
	}
	sctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	posts, err := b.store.Posts().List(sctx, model.ListPostsRequest{ChatScope: chatScope})
	if err != nil {
		return nil, fmt.Errorf("export posts: %w", err)
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return &model.Snapshot{
		ChatScope:  chatScope,
		CreatedAt:  b.now().UTC(),
		TotalPosts: len(posts),
		Posts:      posts,
	}, nil
}

// BeginRestore validates an inbound snapshot document and parks it as the
// scope's pending restore. Nothing is written; the returned summary carries
// the confirmation token required to execute the replace. A failed
// validation leaves no state behind.
func (b *BackupService) BeginRestore(ctx context.Context, chatScope string, raw []byte) (*model.RestoreSummary, error) {
	if chatScope == "" {
		return nil, fmt.Errorf("%w: chat scope is required", model.ErrValidation)
	}

	var doc struct {
		ChatScope  *string        `json:"chat_scope"`
		CreatedAt  *time.Time     `json:"created_at"`
		TotalPosts *int           `json:"total_posts"`
		Posts      *[]*model.Post `json:"posts"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed snapshot: %v", model.ErrValidation, err)
	}
	switch {
	case doc.ChatScope == nil || *doc.ChatScope == "":
		return nil, fmt.Errorf("%w: snapshot is missing chat_scope", model.ErrValidation)
	case doc.CreatedAt == nil:
		return nil, fmt.Errorf("%w: snapshot is missing created_at", model.ErrValidation)
	case doc.Posts == nil:
		return nil, fmt.Errorf("%w: snapshot is missing posts", model.ErrValidation)
	}
	if *doc.ChatScope != chatScope {
		return nil, fmt.Errorf("%w: snapshot belongs to scope %q, not %q", model.ErrValidation, *doc.ChatScope, chatScope)
	}
	if doc.TotalPosts != nil && *doc.TotalPosts != len(*doc.Posts) {
		return nil, fmt.Errorf("%w: snapshot declares %d posts but carries %d", model.ErrValidation, *doc.TotalPosts, len(*doc.Posts))
	}

	snap := &model.Snapshot{
		ChatScope:  *doc.ChatScope,
		CreatedAt:  *doc.CreatedAt,
		TotalPosts: len(*doc.Posts),
		Posts:      *doc.Posts,
	}

	token := uuid.New().String()
	expires := b.now().Add(b.ttl)

	b.mu.Lock()
	// A new upload replaces any previous pending restore for the scope.
	b.pending[chatScope] = &pendingRestore{token: token, snapshot: snap, expiresAt: expires}
	b.mu.Unlock()

	summary := &model.RestoreSummary{
		ChatScope:  chatScope,
		TotalPosts: snap.TotalPosts,
		BackupTime: snap.CreatedAt,
		Token:      token,
		ExpiresAt:  expires,
	}
	if len(snap.Posts) > 0 {
		summary.Sample = snap.Posts[0]
	}
	return summary, nil
}

// ConfirmRestore executes the pending restore for a scope: it deletes the
// scope's existing posts, then reinserts the snapshot's posts one by one.
// Per-record failures are tallied and do not abort the batch; the loop also
// stops between records if ctx is cancelled, and the partial report is still
// returned. A missing, mismatched, or expired token aborts with no state
// change.
func (b *BackupService) ConfirmRestore(ctx context.Context, chatScope, token string) (*model.RestoreReport, error) {
	b.mu.Lock()
	p, ok := b.pending[chatScope]
	if ok && b.now().After(p.expiresAt) {
		delete(b.pending, chatScope)
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: pending restore expired", model.ErrConfirmation)
	}
	if !ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: no pending restore for this chat", model.ErrConfirmation)
	}
	if token == "" || token != p.token {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: confirmation token does not match", model.ErrConfirmation)
	}
	// The snapshot is consumed exactly once; a retry after this point needs
	// a fresh BeginRestore.
	delete(b.pending, chatScope)
	b.mu.Unlock()

	unlock := b.locks.Lock(chatScope)
	defer unlock()

	snap := p.snapshot
	report := &model.RestoreReport{TotalInSnapshot: len(snap.Posts)}

	dctx, cancel := context.WithTimeout(ctx, b.timeout)
	deleted, err := b.store.Posts().DeleteByScope(dctx, chatScope)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("restore delete phase: %w", err)
	}
	report.DeletedCount = deleted

	for i, post := range snap.Posts {
		if ctx.Err() != nil {
			log.Warn().
				Str("chat_scope", chatScope).
				Int("restored", report.RestoredCount).
				Int("remaining", len(snap.Posts)-i).
				Msg("restore aborted by shutdown; returning partial report")
			break
		}
		if err := validateRecord(post, chatScope); err != nil {
			report.ErrorCount++
			log.Warn().Err(err).Str("chat_scope", chatScope).Int("index", i).Msg("skipping corrupt snapshot record")
			continue
		}
		ictx, cancel := context.WithTimeout(ctx, b.timeout)
		_, err := b.store.Posts().Insert(ictx, post)
		cancel()
		if err != nil {
			report.ErrorCount++
			log.Warn().Err(err).Str("chat_scope", chatScope).Int("index", i).Msg("snapshot record insert failed")
			continue
		}
		report.RestoredCount++
	}
	return report, nil
}

// DiscardRestore drops a pending restore without touching the ledger.
// It reports whether anything was pending.
func (b *BackupService) DiscardRestore(chatScope string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[chatScope]
	delete(b.pending, chatScope)
	return ok
}

// validateRecord checks the integrity of one snapshot record before
// reinsertion. Points must agree with the scoring table for the record's
// char count, per the ledger invariant.
func validateRecord(p *model.Post, chatScope string) error {
	switch {
	case p == nil:
		return fmt.Errorf("record is null")
	case p.ChatScope != chatScope:
		return fmt.Errorf("record scope %q does not match snapshot scope", p.ChatScope)
	case p.CharacterName == "":
		return fmt.Errorf("record has empty character name")
	case p.CharCount < 0:
		return fmt.Errorf("record has negative char count")
	case p.SubmittedAt.IsZero():
		return fmt.Errorf("record has no submission timestamp")
	case p.Points != scoring.Points(p.CharCount):
		return fmt.Errorf("record points %d disagree with char count %d", p.Points, p.CharCount)
	}
	return nil
}
