package ports

import (
	"context"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

// SweetFilter carries every listing option the catalog needs. Zero values
// mean "no constraint".
type SweetFilter struct {
	Name        string   // case-insensitive substring
	Category    string   // case-insensitive substring
	MinPrice    *float64 // inclusive
	MaxPrice    *float64 // inclusive
	InStockOnly bool     // quantity > 0
	NewestFirst bool     // sort by created_at desc; otherwise store order
	Limit       int      // 0 = unlimited
}

// SweetRepository defines persistence operations for the catalog.
// Lookups by an unknown or malformed id return domain.ErrSweetNotFound.
type SweetRepository interface {
	Create(ctx context.Context, s *domain.Sweet) error
	FindByID(ctx context.Context, id string) (*domain.Sweet, error)
	List(ctx context.Context, filter SweetFilter) ([]*domain.Sweet, error)
	// Update applies only the fields present in patch and returns the result.
	Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error

	// DecrementQuantity subtracts n only if the current quantity is at least n,
	// as a single store-side operation. It returns domain.ErrInsufficientStock
	// when the condition fails and leaves the record untouched.
	DecrementQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error)
	IncrementQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error)
}

// StockMovementRepository records the audit trail of purchases and restocks.
type StockMovementRepository interface {
	Insert(ctx context.Context, m *domain.StockMovement) error
}
