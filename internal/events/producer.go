// Package events publishes the one fire-and-forget suspension point named in
// spec §5: an interaction acknowledgement emitted after VectorStore accepts
// a write, decoupled from the synchronous request path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/config"
)

// InteractionAck is published after record_interaction succeeds, carrying
// just enough to let an out-of-process consumer (analytics, audit log)
// observe writes without being on the request's critical path.
type InteractionAck struct {
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id"`
	Type      string    `json:"interaction_type"`
	Timestamp time.Time `json:"timestamp"`
}

// Producer publishes to a single topic. Narrowed from a producer+consumer+DLQ
// MessageBus built for bulk content ingestion down to the producer half
// only, since acknowledgements are fire-and-forget and never consumed
// in-process.
type Producer struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewProducer(cfg *config.KafkaConfig, logger *logrus.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.InteractionsTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		logger: logger,
	}
}

// PublishAck is fire-and-forget: the caller does not await delivery, per
// spec §5's "interaction emit (fire-and-forget ack)" suspension point. Write
// failures are logged, never surfaced to the recording caller.
func (p *Producer) PublishAck(ctx context.Context, ack InteractionAck) {
	data, err := json.Marshal(ack)
	if err != nil {
		p.logger.WithError(err).Warn("failed to marshal interaction ack")
		return
	}
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := p.writer.WriteMessages(writeCtx, kafka.Message{
			Key:   []byte(ack.TenantID + ":" + ack.UserID),
			Value: data,
		}); err != nil {
			p.logger.WithError(err).WithField("tenant_id", ack.TenantID).Warn("failed to publish interaction ack")
		}
	}()
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
