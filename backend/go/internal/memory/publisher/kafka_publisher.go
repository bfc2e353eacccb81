package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DecisionPublisher publishes decision records to the decision topic, keyed by
// subject so one subject's decisions stay ordered within a partition.
type DecisionPublisher struct {
	writer MessageWriter
	logger *logger.Logger
}

// NewDecisionPublisher creates a new DecisionPublisher.
func NewDecisionPublisher(writer MessageWriter, logger *logger.Logger) *DecisionPublisher {
	return &DecisionPublisher{writer: writer, logger: logger}
}

// EncodeDecision builds the Kafka message for rec.
func EncodeDecision(rec *models.DecisionRecord) (kafka.Message, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal decision record: %w", err)
	}
	return kafka.Message{
		Key:   []byte(rec.SubjectID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "outcome", Value: []byte(rec.Outcome)},
			{Key: "kind", Value: []byte(rec.Kind)},
		},
	}, nil
}

// Publish sends rec to the decision topic.
func (p *DecisionPublisher) Publish(ctx context.Context, rec *models.DecisionRecord) error {
	msg, err := EncodeDecision(rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithError(models.NewErrorInfo(err, "kafka")).
			WithPayload(map[string]interface{}{"statement_id": rec.StatementID}).
			Error("Failed to write decision to Kafka")
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}
