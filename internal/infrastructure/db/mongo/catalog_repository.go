package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

const (
	collectionProducts  = "products"
	collectionSizes     = "sizes"
	collectionLocations = "locations"
)

// CatalogRepository resolves product, size and location references used during
// reconciliation.
type CatalogRepository struct {
	db *mongo.Database
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type productDoc struct {
	ID     string `bson:"_id"`
	Name   string `bson:"name"`
	Gender string `bson:"gender"`
}

func (r *CatalogRepository) FindProduct(ctx context.Context, id string) (*domain.ProductRef, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc productDoc
	if err := r.db.Collection(collectionProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrResourceNotFound)
		}
		return nil, err
	}
	return &domain.ProductRef{ID: doc.ID, Name: doc.Name, Gender: doc.Gender}, nil
}

type sizeDoc struct {
	ID    string `bson:"_id"`
	Label string `bson:"label"`
}

func (r *CatalogRepository) FindSize(ctx context.Context, id string) (*domain.SizeRef, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sizeDoc
	if err := r.db.Collection(collectionSizes).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("size %s: %w", id, domain.ErrResourceNotFound)
		}
		return nil, err
	}
	return &domain.SizeRef{ID: doc.ID, Label: doc.Label}, nil
}

func (r *CatalogRepository) FindLocation(ctx context.Context, id string) (*domain.StockLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var loc domain.StockLocation
	if err := r.db.Collection(collectionLocations).FindOne(ctx, bson.M{"_id": id}).Decode(&loc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("location %s: %w", id, domain.ErrResourceNotFound)
		}
		return nil, err
	}
	return &loc, nil
}
