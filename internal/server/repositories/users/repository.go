package users

import (
	"context"

	"github.com/dmitrijs2005/trackmeta/internal/server/models"
)

// Repository persists accounts.
//
// Create reports duplicate usernames and emails as common.ErrUsernameTaken,
// common.ErrEmailTaken or common.ErrDuplicateAccount. Lookups that find no
// row return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
