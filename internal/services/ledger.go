package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/scoring"
	"github.com/postledger/postledger/internal/store"
)

// Rejections are no-ops, not failures: the ledger stores nothing and the
// front-end relays the reason.
var (
	ErrEmptyCharacterName = fmt.Errorf("%w: first line is empty", model.ErrRejected)
	ErrCommandText        = fmt.Errorf("%w: first line starts with a command marker", model.ErrRejected)
)

const defaultStoreTimeout = 5 * time.Second

// SubmitRequest carries one raw post submission from the chat front-end.
// SubmittedAt is the front-end's message timestamp, not the insert time, so
// restored ledgers keep their original period placement.
type SubmitRequest struct {
	ChatScope   string
	Author      model.Author
	Text        string
	SubmittedAt time.Time
}

// LedgerService owns the append-only post ledger.
type LedgerService struct {
	store   store.Store
	locks   *ScopeLocks
	timeout time.Duration
}

func NewLedgerService(s store.Store, locks *ScopeLocks, storeTimeout time.Duration) *LedgerService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &LedgerService{store: s, locks: locks, timeout: storeTimeout}
}

// Submit scores and persists one post. The first line of the text, trimmed
// and lower-cased, becomes the character name; an empty or command-prefixed
// first line rejects the submission with no side effect.
func (s *LedgerService) Submit(ctx context.Context, req SubmitRequest) (*model.Post, error) {
	if req.ChatScope == "" {
		return nil, fmt.Errorf("%w: chat scope is required", model.ErrValidation)
	}
	if req.Author.UserID == "" {
		return nil, fmt.Errorf("%w: author user id is required", model.ErrValidation)
	}
	if req.SubmittedAt.IsZero() {
		return nil, fmt.Errorf("%w: submission timestamp is required", model.ErrValidation)
	}

	text := strings.TrimSpace(req.Text)
	firstLine, _, _ := strings.Cut(text, "\n")
	name := strings.ToLower(strings.TrimSpace(firstLine))
	if name == "" {
		return nil, ErrEmptyCharacterName
	}
	if strings.HasPrefix(name, "/") {
		return nil, ErrCommandText
	}

	charCount := utf8.RuneCountInString(text)
	post := &model.Post{
		ChatScope:     req.ChatScope,
		UserID:        req.Author.UserID,
		DisplayName:   req.Author.DisplayName,
		CharacterName: name,
		SubmittedAt:   req.SubmittedAt,
		CharCount:     charCount,
		Points:        scoring.Points(charCount),
	}

	unlock := s.locks.Lock(req.ChatScope)
	defer unlock()

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	stored, err := s.store.Posts().Insert(sctx, post)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return stored, nil
}
