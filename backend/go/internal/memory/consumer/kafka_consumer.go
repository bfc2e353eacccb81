package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MedMemory/backend/go/internal/memory/service"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Ingester processes one statement.
type Ingester interface {
	Ingest(ctx context.Context, rec models.StatementRecord) (*service.IngestResult, error)
}

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

// KafkaConsumer reads statements from the statement topic and hands them to
// the memory service. Messages are committed once handled; malformed or
// invalid statements are logged and skipped.
type KafkaConsumer struct {
	reader   MessageReader
	ingester Ingester
	logger   *logger.Logger
	backoff  time.Duration
}

// NewKafkaConsumer creates a new KafkaConsumer.
func NewKafkaConsumer(reader MessageReader, ingester Ingester, logger *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		ingester: ingester,
		logger:   logger,
		backoff:  retryBackoff,
	}
}

// Start runs the consumer loop in a goroutine until ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run consumes messages until ctx is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Stopping Kafka statement consumer...")
				return
			}
			c.logger.WithError(models.NewErrorInfo(err, "kafka")).Error("Error fetching message from Kafka")
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			c.logger.WithError(models.NewErrorInfo(err, "ingest")).WithPayload(map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Error("Error handling Kafka message")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WithError(models.NewErrorInfo(err, "kafka")).Error("Failed to commit Kafka message")
		}
	}
}

// handle decodes and ingests one message. Transient ingest failures are
// retried a few times before the message is given up.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var rec models.StatementRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return fmt.Errorf("decode statement: %w", err)
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var res *service.IngestResult
		res, err = c.ingester.Ingest(ctx, rec)
		if err == nil {
			if !res.Accepted {
				c.logger.WithTrace(res.StatementID).WithSubject(rec.SubjectID).Debug("statement rejected by validator")
			}
			return nil
		}
		if errors.Is(err, service.ErrInvalidStatement) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return fmt.Errorf("give up after %d attempts: %w", maxAttempts, err)
}
