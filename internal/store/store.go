package store

import (
	"context"

	"github.com/postledger/postledger/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Posts() Posts
}

// Posts is the scoped ledger contract. Every operation is partitioned by
// chat scope; there are no unscoped reads or deletes.
type Posts interface {
	Insert(ctx context.Context, p *model.Post) (*model.Post, error)
	List(ctx context.Context, req model.ListPostsRequest) ([]*model.Post, error)
	DeleteByScope(ctx context.Context, chatScope string) (int, error)
}
