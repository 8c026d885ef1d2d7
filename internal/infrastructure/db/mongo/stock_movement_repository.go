package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

const collectionStockMovements = "stock_movements"

// StockMovementRepository persists the purchase/restock audit trail.
type StockMovementRepository struct {
	col *mongo.Collection
}

func NewStockMovementRepository(db *mongo.Database) *StockMovementRepository {
	return &StockMovementRepository{col: db.Collection(collectionStockMovements)}
}

// Insert persists a movement to the stock_movements audit collection.
func (r *StockMovementRepository) Insert(ctx context.Context, m *domain.StockMovement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"sweetId":       m.SweetID,
		"kind":          string(m.Kind),
		"amount":        m.Amount,
		"quantityAfter": m.QuantityAfter,
		"at":            m.At.UTC(),
		"recordedAt":    time.Now().UTC(),
	}
	if m.UserID != "" {
		doc["userId"] = m.UserID
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *StockMovementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sweetId", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}
