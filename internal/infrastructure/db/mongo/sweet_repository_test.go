package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sweetshop/sweets-api/internal/core/ports"
)

func TestSweetFilter_Empty(t *testing.T) {
	assert.Empty(t, sweetFilter(ports.SweetFilter{}))
}

func TestSweetFilter_AllCriteria(t *testing.T) {
	minPrice, maxPrice := 10.0, 99.5
	f := sweetFilter(ports.SweetFilter{
		Name:        "kaju",
		Category:    "Indian",
		MinPrice:    &minPrice,
		MaxPrice:    &maxPrice,
		InStockOnly: true,
	})

	assert.Equal(t, primitive.Regex{Pattern: "kaju", Options: "i"}, f["name"])
	assert.Equal(t, primitive.Regex{Pattern: "Indian", Options: "i"}, f["category"])
	assert.Equal(t, bson.M{"$gte": 10.0, "$lte": 99.5}, f["price"])
	assert.Equal(t, bson.M{"$gt": 0}, f["quantity"])
}

func TestSweetFilter_OneSidedPrice(t *testing.T) {
	maxPrice := 50.0
	f := sweetFilter(ports.SweetFilter{MaxPrice: &maxPrice})
	assert.Equal(t, bson.M{"$lte": 50.0}, f["price"])
}

func TestContainsIgnoreCase_EscapesMetacharacters(t *testing.T) {
	re := containsIgnoreCase("c++ (special)")
	assert.Equal(t, `c\+\+ \(special\)`, re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, ok := objectID(oid.Hex())
	require.True(t, ok)
	assert.Equal(t, oid, got)

	_, ok = objectID("not-an-id")
	assert.False(t, ok)
}

func TestSweetDocument_ToDomainNeverNilImages(t *testing.T) {
	doc := sweetDocument{ID: primitive.NewObjectID(), Name: "Ladoo"}
	s := doc.toDomain()
	assert.NotNil(t, s.ImageURLs)
	assert.Equal(t, doc.ID.Hex(), s.ID)
}
