package datasets

import (
	"context"

	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/pagination"
	"github.com/JaimeStill/weles/pkg/repository"
)

// System defines dataset storage and lookup.
//
// Prepare and Commit split a save so callers can fold the metadata insert
// into a larger transaction. A Pending that fails to commit must be passed
// to Discard; one that commits should be passed to Publish.
type System interface {
	Handler(auth users.Authenticator, maxUploadSize int64) *Handler

	Prepare(ctx context.Context, in Input) (*Pending, error)
	Commit(ctx context.Context, tx repository.Executor, p *Pending) (bool, error)
	Discard(p *Pending)
	Publish(ctx context.Context, p *Pending)
	Save(ctx context.Context, in Input) (*SaveResult, error)

	Exists(ctx context.Context, hash string) (bool, error)
	Find(ctx context.Context, hash string) (*Dataset, error)
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Dataset], error)
	Info(ctx context.Context, hash string) (*Info, error)
	Content(ctx context.Context, hash string) ([]byte, error)
	Head(ctx context.Context, hash string, n int) ([]byte, error)
}
