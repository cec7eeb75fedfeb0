package cookies

import (
	"context"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/client/models"
)

// Repository stores cookies keyed by name.
//
// Get returns (nil, nil) when no cookie with that name exists.
type Repository interface {
	Put(ctx context.Context, c *models.Cookie) error
	Get(ctx context.Context, name string) (*models.Cookie, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]*models.Cookie, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
