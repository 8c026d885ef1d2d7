package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/sweets-api/internal/core/domain"
	"github.com/sweetshop/sweets-api/internal/core/ports"
)

const collectionSweets = "sweets"

// SweetRepository implements ports.SweetRepository on the sweets collection.
type SweetRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewSweetRepository(db *mongo.Database) *SweetRepository {
	return &SweetRepository{
		col: db.Collection(collectionSweets),
		now: func() time.Time { return time.Now().UTC() },
	}
}

type sweetDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Category  string             `bson:"category"`
	Price     float64            `bson:"price"`
	Quantity  int                `bson:"quantity"`
	ImageURLs []string           `bson:"imageUrls"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *sweetDocument) toDomain() *domain.Sweet {
	urls := d.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return &domain.Sweet{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Category:  d.Category,
		Price:     d.Price,
		Quantity:  d.Quantity,
		ImageURLs: urls,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Create inserts a new sweet and sets s.ID.
func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := sweetDocument{
		ID:        primitive.NewObjectID(),
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		Quantity:  s.Quantity,
		ImageURLs: s.ImageURLs,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if doc.ImageURLs == nil {
		doc.ImageURLs = []string{}
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert sweet: %w", err)
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *SweetRepository) FindByID(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sweetDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns the sweets matching f. Name and category are matched as
// literal case-insensitive substrings.
func (r *SweetRepository) List(ctx context.Context, f ports.SweetFilter) ([]*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find()
	if f.NewestFirst {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, sweetFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}
	defer cur.Close(ctx)

	out := []*domain.Sweet{}
	for cur.Next(ctx) {
		var doc sweetDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode sweet: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}
	return out, nil
}

func sweetFilter(f ports.SweetFilter) bson.M {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = containsIgnoreCase(f.Name)
	}
	if f.Category != "" {
		filter["category"] = containsIgnoreCase(f.Category)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}
	if f.InStockOnly {
		filter["quantity"] = bson.M{"$gt": 0}
	}
	return filter
}

func containsIgnoreCase(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// Update sets the present fields of patch and returns the updated document.
func (r *SweetRepository) Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	set := bson.M{"updatedAt": r.now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.ImageURLs != nil {
		set["imageUrls"] = patch.ImageURLs
	}
	return r.findAndModify(ctx, id, bson.M{}, bson.M{"$set": set})
}

func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

// DecrementQuantity subtracts n in one conditional update guarded by
// quantity >= n. When nothing matches, a count by id tells a missing sweet
// apart from insufficient stock.
func (r *SweetRepository) DecrementQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error) {
	sweet, err := r.findAndModify(ctx, id,
		bson.M{"quantity": bson.M{"$gte": n}},
		bson.M{
			"$inc": bson.M{"quantity": -n},
			"$set": bson.M{"updatedAt": r.now()},
		},
	)
	if !errors.Is(err, domain.ErrSweetNotFound) {
		return sweet, err
	}

	oid, _ := objectID(id)
	countCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	count, cerr := r.col.CountDocuments(countCtx, bson.M{"_id": oid})
	if cerr != nil {
		return nil, fmt.Errorf("count sweet: %w", cerr)
	}
	if count > 0 {
		return nil, domain.ErrInsufficientStock
	}
	return nil, domain.ErrSweetNotFound
}

func (r *SweetRepository) IncrementQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error) {
	return r.findAndModify(ctx, id, bson.M{}, bson.M{
		"$inc": bson.M{"quantity": n},
		"$set": bson.M{"updatedAt": r.now()},
	})
}

// findAndModify applies update to the sweet with the given id when cond also
// matches, returning the document after the update.
func (r *SweetRepository) findAndModify(ctx context.Context, id string, cond, update bson.M) (*domain.Sweet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid}
	for k, v := range cond {
		filter[k] = v
	}

	var doc sweetDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the indexes backing search and the homepage listing.
func (r *SweetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "quantity", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
