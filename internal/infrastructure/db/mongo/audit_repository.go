package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/boxtrail/transfer-system/internal/core/domain"
	"github.com/boxtrail/transfer-system/internal/core/ports"
)

const collectionEvents = "shipment_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{col: db.Collection(collectionEvents)}
}

// InsertTransitionEvent persists a transition event to the audit collection.
func (r *AuditRepository) InsertTransitionEvent(ctx context.Context, event *domain.TransitionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"shipment_label": event.ShipmentLabel,
		"action":         event.Action,
		"timestamp":      event.Timestamp.UTC(),
		"actor":          bson.M{"id": event.Actor.ID, "name": event.Actor.Name},
		"box_count":      event.BoxCount,
		"recorded_at":    time.Now().UTC(),
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}
