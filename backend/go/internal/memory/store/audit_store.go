package store

import (
	"context"
	"fmt"

	"MedMemory/backend/go/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditStore keeps the decision trail: one record per processed statement,
// applied or rejected.
type AuditStore interface {
	Record(ctx context.Context, rec *models.DecisionRecord) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.DecisionRecord, error)
}

// MongoAuditStore is an AuditStore using MongoDB.
type MongoAuditStore struct {
	collection *mongo.Collection
}

// NewMongoAuditStore creates a new MongoAuditStore.
func NewMongoAuditStore(collection *mongo.Collection) *MongoAuditStore {
	return &MongoAuditStore{collection: collection}
}

// Record inserts rec.
func (s *MongoAuditStore) Record(ctx context.Context, rec *models.DecisionRecord) error {
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert decision record: %w", err)
	}
	return nil
}

// ListBySubject returns the newest records of a subject.
func (s *MongoAuditStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.DecisionRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "decided_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{"subject_id": subjectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find decision records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.DecisionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode decision records: %w", err)
	}
	return records, nil
}
