package interfaces

import (
	"context"

	"github.com/bobmcallan/coindeck/internal/models"
)

// TokenStore persists the bearer token across client restarts. A missing
// token is normal state, reported as an empty string with a nil error.
type TokenStore interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
}

// SnapshotCache persists the last published portfolio snapshot so a freshly
// started client can render immediately while the stream connects.
type SnapshotCache interface {
	// Load returns the cached snapshot, or nil when none has been saved.
	Load(ctx context.Context) (*models.PortfolioSnapshot, error)
	Save(ctx context.Context, snapshot *models.PortfolioSnapshot) error
}
