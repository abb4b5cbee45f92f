package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

const (
	collectionBases      = "bases"
	collectionAgreements = "transfer_agreements"
)

// BaseRepository resolves base references from the bases collection.
type BaseRepository struct {
	col *mongo.Collection
}

func NewBaseRepository(db *mongo.Database) *BaseRepository {
	return &BaseRepository{col: db.Collection(collectionBases)}
}

type baseDoc struct {
	ID           string              `bson:"_id"`
	Name         string              `bson:"name"`
	Organisation domain.Organisation `bson:"organisation"`
}

func (r *BaseRepository) FindByID(ctx context.Context, id string) (*domain.Base, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc baseDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBaseNotFound
		}
		return nil, err
	}
	return &domain.Base{ID: doc.ID, Name: doc.Name, Organisation: doc.Organisation}, nil
}

// AgreementRepository resolves transfer agreements.
type AgreementRepository struct {
	col *mongo.Collection
}

func NewAgreementRepository(db *mongo.Database) *AgreementRepository {
	return &AgreementRepository{col: db.Collection(collectionAgreements)}
}

func (r *AgreementRepository) FindByID(ctx context.Context, id string) (*domain.TransferAgreement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.TransferAgreement
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}
	return &a, nil
}
