package models

import (
	"context"

	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/pagination"
)

// System defines the model registry operations.
type System interface {
	Handler(auth users.Authenticator, maxUploadSize int64) *Handler

	// Upload stores the artifact and manifest and submits a provisioning
	// task. It returns before the environment is built.
	Upload(ctx context.Context, cmd UploadCommand) (*Submission, error)
	Predict(ctx context.Context, cmd PredictCommand) ([]byte, error)
	Audit(ctx context.Context, cmd AuditCommand) (*AuditResult, error)
	PrintModel(ctx context.Context, name string) ([]byte, error)

	Find(ctx context.Context, name string) (*Model, error)
	Info(ctx context.Context, name string) (*Info, error)
	Requirements(ctx context.Context, name string) (map[string]string, error)
	Search(ctx context.Context, filters SearchFilters) ([]string, error)
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Model], error)
}
