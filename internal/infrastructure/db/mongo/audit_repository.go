package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventplanner/event-api/internal/core/domain"
)

const collectionAudit = "auth_audit"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

// Insert persists an audit entry to the auth_audit collection.
func (r *AuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"kind":        string(entry.Kind),
		"occurred_at": entry.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if entry.Username != "" {
		doc["username"] = entry.Username
	}
	if entry.Subject != "" {
		doc["subject"] = entry.Subject
	}
	if entry.Reason != "" {
		doc["reason"] = entry.Reason
	}
	if entry.Path != "" {
		doc["path"] = entry.Path
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}
