package ports

import (
	"context"
	"street-screens-service/internal/domain"
)

type UserRepository interface {
	// Returns domain.ErrConflict when the email is taken (case-insensitive).
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
