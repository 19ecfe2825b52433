package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	// ListActive returns active users ordered by full name.
	ListActive(ctx context.Context) ([]User, error)
}
