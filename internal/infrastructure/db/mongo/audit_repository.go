package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

const collectionAuthEvents = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuthEvents)}
}

// InsertEvent appends an auth event to the audit collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event domain.AuthEvent) error {
	doc := bson.M{
		"type":         string(event.Type),
		"identifier":   event.Identifier,
		"occurred_at":  event.OccurredAt.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.SubjectID != "" {
		doc["subject_id"] = event.SubjectID
		doc["role"] = string(event.Role)
		doc["store"] = string(event.Store)
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, doc)
	return err
}
