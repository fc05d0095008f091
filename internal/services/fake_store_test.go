package services

import (
	"context"
	"sync"
	"time"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/store"
)

// fakeStore is an in-memory store.Store used by the service tests. Error
// hooks let tests inject failures per call.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	posts  []*model.Post

	insertHook func(p *model.Post) error
	listErr    error
	deleteErr  error

	deleteCalls int
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) Posts() store.Posts { return &fakePosts{f} }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeStore) all() []*model.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

type fakePosts struct{ f *fakeStore }

func (p *fakePosts) Insert(ctx context.Context, m *model.Post) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.insertHook != nil {
		if err := p.f.insertHook(m); err != nil {
			return nil, err
		}
	}
	p.f.nextID++
	out := *m
	out.ID = p.f.nextID
	out.CreatedAt = time.Now().UTC()
	p.f.posts = append(p.f.posts, &out)
	return &out, nil
}

func (p *fakePosts) List(ctx context.Context, req model.ListPostsRequest) ([]*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.listErr != nil {
		return nil, p.f.listErr
	}
	var out []*model.Post
	for _, m := range p.f.posts {
		if m.ChatScope != req.ChatScope {
			continue
		}
		if req.UserID != "" && m.UserID != req.UserID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (p *fakePosts) DeleteByScope(ctx context.Context, chatScope string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	p.f.deleteCalls++
	if p.f.deleteErr != nil {
		return 0, p.f.deleteErr
	}
	var kept []*model.Post
	deleted := 0
	for _, m := range p.f.posts {
		if m.ChatScope == chatScope {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	p.f.posts = kept
	return deleted, nil
}
