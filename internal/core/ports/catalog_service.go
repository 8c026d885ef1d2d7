package ports

import (
	"context"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

// CreateSweetInput is the add-item form. Price and Quantity are pointers so
// that a missing field can be told apart from a zero.
type CreateSweetInput struct {
	Name     string
	Category string
	Price    *float64
	Quantity *int
	Images   []MediaFile
}

// UpdateSweetInput is a partial update; Images, when non-empty, replace the
// existing list.
type UpdateSweetInput struct {
	Patch  domain.SweetPatch
	Images []MediaFile
}

// SearchSweetsInput carries the optional search criteria.
type SearchSweetsInput struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// PurchaseInput describes one purchase. Quantity has already been resolved
// by the transport layer (defaults applied). IdempotencyKey is optional.
type PurchaseInput struct {
	SweetID        string
	Quantity       int
	UserID         string
	IdempotencyKey string
}

type RestockInput struct {
	SweetID string
	Amount  *int
	UserID  string
}

// CatalogService defines use-case operations for the sweet catalog.
type CatalogService interface {
	Add(ctx context.Context, input CreateSweetInput) (*domain.Sweet, error)
	ListAll(ctx context.Context) ([]*domain.Sweet, error)
	ListHomepage(ctx context.Context) ([]*domain.Sweet, error)
	Search(ctx context.Context, input SearchSweetsInput) ([]*domain.Sweet, error)
	Update(ctx context.Context, id string, input UpdateSweetInput) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, input PurchaseInput) (*domain.Sweet, error)
	Restock(ctx context.Context, input RestockInput) (*domain.Sweet, error)
}
