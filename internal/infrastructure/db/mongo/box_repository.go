package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

const collectionBoxes = "boxes"

type BoxRepository struct {
	col *mongo.Collection
}

func NewBoxRepository(db *mongo.Database) *BoxRepository {
	return &BoxRepository{col: db.Collection(collectionBoxes)}
}

// FindByLabel retrieves a box by its label identifier.
func (r *BoxRepository) FindByLabel(ctx context.Context, label string) (*domain.Box, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var b domain.Box
	err := r.col.FindOne(ctx, bson.M{"_id": label}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBoxNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Update replaces the stored box document.
func (r *BoxRepository) Update(ctx context.Context, b *domain.Box) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": b.LabelIdentifier}, b)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrBoxNotFound
	}
	return nil
}

// SetStates bulk-updates the state of every box in labels.
func (r *BoxRepository) SetStates(ctx context.Context, labels []string, state domain.BoxState) error {
	if len(labels) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": labels}},
		bson.M{"$set": bson.M{"state": string(state)}},
	)
	return err
}
