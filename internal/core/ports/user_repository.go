package ports

import (
	"context"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

// UserRepository is the credential store. Email is unique; Create returns
// domain.ErrEmailTaken when the store rejects a duplicate.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
