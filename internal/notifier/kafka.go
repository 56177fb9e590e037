package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes fulfilled donations keyed by capture id, so
// redeliveries of one transaction land in the same partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

var _ Notifier = (*KafkaNotifier)(nil)

func (kn *KafkaNotifier) Notify(ctx context.Context, event DonationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal donation event: %w", err)
	}

	return kn.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.CaptureID),
		Value: data,
	})
}

func (kn *KafkaNotifier) Close() error { return kn.writer.Close() }
