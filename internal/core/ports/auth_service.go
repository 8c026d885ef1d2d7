package ports

import (
	"context"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

// RegisterInput carries the registration form. Role and Address are optional.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Address  string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
