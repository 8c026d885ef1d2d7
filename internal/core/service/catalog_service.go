package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sweetshop/sweets-api/internal/core/domain"
	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/pkg/metrics"
)

// HomepageLimit caps the featured list on the storefront.
const HomepageLimit = 8

// PurchaseGuard abstracts the purchase idempotency store (Redis).
type PurchaseGuard interface {
	// Claim reserves key. claimed is false when the key was already taken;
	// prior is then the stored result of the completed purchase, or nil while
	// the first request is still running.
	Claim(ctx context.Context, key string) (claimed bool, prior *domain.Sweet, err error)
	Complete(ctx context.Context, key string, result *domain.Sweet) error
	Release(ctx context.Context, key string) error
}

// CatalogService implements catalog CRUD, search and stock mutation.
type CatalogService struct {
	repo      ports.SweetRepository
	movements ports.StockMovementRepository
	uploader  ports.MediaUploader
	guard     PurchaseGuard // optional
	logger    zerolog.Logger
	now       func() time.Time
}

func NewCatalogService(
	repo ports.SweetRepository,
	movements ports.StockMovementRepository,
	uploader ports.MediaUploader,
	guard PurchaseGuard,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:      repo,
		movements: movements,
		uploader:  uploader,
		guard:     guard,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Add validates the input, uploads every image and persists the sweet. If any
// upload fails nothing is stored.
func (s *CatalogService) Add(ctx context.Context, in ports.CreateSweetInput) (*domain.Sweet, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" || in.Price == nil || in.Quantity == nil {
		return nil, domain.ErrMissingSweetFields
	}

	now := s.now()
	sweet := &domain.Sweet{
		Name:      in.Name,
		Category:  in.Category,
		Price:     *in.Price,
		Quantity:  *in.Quantity,
		ImageURLs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateSweet(sweet); err != nil {
		return nil, err
	}

	if len(in.Images) > 0 {
		urls, err := s.uploadAll(ctx, in.Images)
		if err != nil {
			return nil, err
		}
		sweet.ImageURLs = urls
	}

	if err := s.repo.Create(ctx, sweet); err != nil {
		s.logger.Error().Err(err).Str("name", sweet.Name).Msg("failed to create sweet")
		return nil, fmt.Errorf("add sweet: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("create").Inc()
	s.logger.Info().Str("sweet_id", sweet.ID).Str("name", sweet.Name).Int("images", len(sweet.ImageURLs)).Msg("sweet created")
	return sweet, nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]*domain.Sweet, error) {
	sweets, err := s.repo.List(ctx, ports.SweetFilter{})
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}
	return sweets, nil
}

// ListHomepage returns the newest in-stock sweets for the storefront.
func (s *CatalogService) ListHomepage(ctx context.Context) ([]*domain.Sweet, error) {
	sweets, err := s.repo.List(ctx, ports.SweetFilter{
		InStockOnly: true,
		NewestFirst: true,
		Limit:       HomepageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list homepage sweets: %w", err)
	}
	return sweets, nil
}

func (s *CatalogService) Search(ctx context.Context, in ports.SearchSweetsInput) ([]*domain.Sweet, error) {
	sweets, err := s.repo.List(ctx, ports.SweetFilter{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	return sweets, nil
}

// Update applies a partial update. New images replace the existing list.
func (s *CatalogService) Update(ctx context.Context, id string, in ports.UpdateSweetInput) (*domain.Sweet, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := in.Patch
	if err := domain.ValidateSweetPatch(&patch); err != nil {
		return nil, err
	}

	if len(in.Images) > 0 {
		urls, err := s.uploadAll(ctx, in.Images)
		if err != nil {
			return nil, err
		}
		patch.ImageURLs = urls
	}

	if patch.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("update").Inc()
	s.logger.Info().Str("sweet_id", id).Msg("sweet updated")
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete sweet: %w", err)
	}
	metrics.CatalogWritesTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("sweet_id", id).Msg("sweet deleted")
	return nil
}

// Purchase removes in.Quantity units from stock. The availability check and
// the decrement happen in one conditional store update, so concurrent
// purchases can never oversell.
func (s *CatalogService) Purchase(ctx context.Context, in ports.PurchaseInput) (*domain.Sweet, error) {
	if _, err := s.repo.FindByID(ctx, in.SweetID); err != nil {
		s.countStock("purchase", err)
		return nil, err
	}
	if in.Quantity <= 0 {
		s.countStock("purchase", domain.ErrInvalidPurchaseAmount)
		return nil, domain.ErrInvalidPurchaseAmount
	}

	key := s.purchaseKey(in)
	if key != "" {
		claimed, prior, err := s.guard.Claim(ctx, key)
		switch {
		case err != nil:
			// Idempotency is best effort: an unavailable guard must not block sales.
			s.logger.Warn().Err(err).Str("sweet_id", in.SweetID).Msg("idempotency claim failed, purchasing anyway")
			key = ""
		case !claimed && prior != nil:
			metrics.StockOperationsTotal.WithLabelValues("purchase", "replayed").Inc()
			s.logger.Info().Str("sweet_id", in.SweetID).Str("idempotency_key", in.IdempotencyKey).Msg("idempotent replay")
			return prior, nil
		case !claimed:
			return nil, domain.ErrPurchaseInProgress
		}
	}

	// The guard must settle even when the client has gone away, or the key
	// stays pending and every retry is rejected.
	settleCtx := context.WithoutCancel(ctx)

	sweet, err := s.repo.DecrementQuantity(ctx, in.SweetID, in.Quantity)
	if err != nil {
		s.countStock("purchase", err)
		if key != "" {
			if relErr := s.guard.Release(settleCtx, key); relErr != nil {
				s.logger.Warn().Err(relErr).Str("sweet_id", in.SweetID).Msg("failed to release idempotency key")
			}
		}
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("purchase: %w", err)
	}

	if key != "" {
		if err := s.guard.Complete(settleCtx, key, sweet); err != nil {
			s.logger.Warn().Err(err).Str("sweet_id", in.SweetID).Msg("failed to store idempotent result")
		}
	}

	metrics.StockOperationsTotal.WithLabelValues("purchase", "success").Inc()
	metrics.UnitsSoldTotal.Add(float64(in.Quantity))
	s.record(ctx, domain.MovementPurchase, sweet, in.Quantity, in.UserID)

	s.logger.Info().
		Str("sweet_id", sweet.ID).
		Int("amount", in.Quantity).
		Int("remaining", sweet.Quantity).
		Str("user_id", in.UserID).
		Msg("purchase completed")
	return sweet, nil
}

// Restock adds units to stock.
func (s *CatalogService) Restock(ctx context.Context, in ports.RestockInput) (*domain.Sweet, error) {
	if _, err := s.repo.FindByID(ctx, in.SweetID); err != nil {
		s.countStock("restock", err)
		return nil, err
	}
	if in.Amount == nil || *in.Amount <= 0 {
		s.countStock("restock", domain.ErrInvalidRestockAmount)
		return nil, domain.ErrInvalidRestockAmount
	}

	sweet, err := s.repo.IncrementQuantity(ctx, in.SweetID, *in.Amount)
	if err != nil {
		s.countStock("restock", err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("restock: %w", err)
	}

	metrics.StockOperationsTotal.WithLabelValues("restock", "success").Inc()
	s.record(ctx, domain.MovementRestock, sweet, *in.Amount, in.UserID)

	s.logger.Info().
		Str("sweet_id", sweet.ID).
		Int("amount", *in.Amount).
		Int("quantity", sweet.Quantity).
		Str("user_id", in.UserID).
		Msg("restock completed")
	return sweet, nil
}

// uploadAll uploads files concurrently and returns their URLs in input
// order. The first failure cancels the remaining uploads.
func (s *CatalogService) uploadAll(ctx context.Context, files []ports.MediaFile) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Filename, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int("files", len(files)).Msg("image upload failed")
		return nil, &domain.Error{Kind: domain.ErrUpload, Message: "Image upload failed: " + err.Error()}
	}
	return urls, nil
}

func (s *CatalogService) purchaseKey(in ports.PurchaseInput) string {
	if s.guard == nil || in.IdempotencyKey == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", in.UserID, in.SweetID, in.IdempotencyKey)
}

// record writes the audit entry. Failures are logged, never surfaced: the
// stock change has already happened.
func (s *CatalogService) record(ctx context.Context, kind domain.MovementKind, sweet *domain.Sweet, amount int, userID string) {
	if s.movements == nil {
		return
	}
	m := &domain.StockMovement{
		SweetID:       sweet.ID,
		Kind:          kind,
		Amount:        amount,
		QuantityAfter: sweet.Quantity,
		UserID:        userID,
		At:            s.now(),
	}
	if err := s.movements.Insert(ctx, m); err != nil {
		s.logger.Warn().Err(err).Str("sweet_id", sweet.ID).Str("kind", string(kind)).Msg("failed to insert stock movement")
	}
}

func (s *CatalogService) countStock(operation string, err error) {
	result := "error"
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		result = "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrValidation):
		result = "invalid"
	}
	metrics.StockOperationsTotal.WithLabelValues(operation, result).Inc()
}
