package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weathercal/internal/config"
	"github.com/couchcryptid/weathercal/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier produces one message per published calendar.
// It implements pipeline.Notifier.
type Notifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// Publish writes all publications in a single WriteMessages call. Messages
// are keyed by point code so updates for one point stay ordered.
func (n *Notifier) Publish(ctx context.Context, pubs []domain.Publication) error {
	if len(pubs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(pubs))
	for i := range pubs {
		msg, err := serializeToMessage(pubs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d notifications: %w", len(msgs), err)
	}
	n.logger.Debug("notifications published", "count", len(msgs))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a Publication into a Kafka message.
func serializeToMessage(pub domain.Publication) (kafkago.Message, error) {
	data, err := json.Marshal(pub)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize publication: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(pub.PointCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "office", Value: []byte(pub.Office)},
			{Key: "published_at", Value: []byte(pub.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}
