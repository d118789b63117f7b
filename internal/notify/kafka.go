package notify

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes messages to a kafka topic consumed by the
// delivery service. Messages are keyed by business id so one business's
// notifications stay ordered within a partition.
type KafkaNotifier struct {
	w *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	err = n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.BusinessID, 10)),
		Value: value,
	})
	return errors.Wrap(err, "kafka publish")
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}

var _ Notifier = (*KafkaNotifier)(nil)
