package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"discipline-service/internal/config"
	"discipline-service/internal/model"
	"discipline-service/internal/service"
)

const (
	retryBackoff    = 500 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

// Namespace for record ids derived from message coordinates.
var recordNamespace = uuid.MustParse("8f0b6a4e-2c1d-4f53-9a6e-3d7c5b1e9f20")

type Recorder interface {
	Ingest(ctx context.Context, input service.CreateViolationInput) (*model.ViolationRecord, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer stores violations published on a Kafka topic. Offsets are committed
// only after a message is stored or rejected as malformed. A store failure is
// retried until it succeeds or the context ends, and the offset stays
// uncommitted in the latter case. Redelivered messages map to the same record
// id, so they are stored once.
type Consumer struct {
	reader   messageReader
	recorder Recorder
	log      zerolog.Logger
	backoff  time.Duration
}

func NewConsumer(cfg config.KafkaConfig, recorder Recorder, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, recorder, log)
}

func newConsumer(reader messageReader, recorder Recorder, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader:   reader,
		recorder: recorder,
		log:      log.With().Str("component", "kafka-ingest").Logger(),
		backoff:  retryBackoff,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Msg("kafka read error")
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		// handle only fails once ctx is done; the offset stays uncommitted.
		if err := c.handle(ctx, m); err != nil {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Int64("offset", m.Offset).Msg("kafka commit error")
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	input, err := Decode(m.Value)
	if err != nil {
		c.log.Warn().Err(err).Int("partition", m.Partition).Int64("offset", m.Offset).Msg("skipping message")
		return nil
	}
	input.ID = RecordID(m)

	for attempt := 1; ; attempt++ {
		record, err := c.recorder.Ingest(ctx, input)
		if err == nil {
			c.log.Debug().Str("employee_id", record.EmployeeID).Str("type", record.Type).Msg("violation ingested")
			return nil
		}
		if errors.Is(err, service.ErrInvalidInput) {
			c.log.Warn().Err(err).Int64("offset", m.Offset).Msg("rejected violation")
			return nil
		}
		c.log.Error().Err(err).Int("attempt", attempt).Int64("offset", m.Offset).Msg("store violation failed")
		if !sleep(ctx, c.retryDelay(attempt)) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) retryDelay(attempt int) time.Duration {
	d := c.backoff
	for i := 1; i < attempt && d < maxRetryBackoff; i++ {
		d *= 2
	}
	if d > maxRetryBackoff {
		d = maxRetryBackoff
	}
	return d
}

// RecordID derives a stable record id from the message's topic, partition
// and offset.
func RecordID(m kafka.Message) uuid.UUID {
	return uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset)))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
