package notify

import (
	"context"
	"strings"
	"sync"

	sarama "github.com/IBM/sarama"
)

// kafkaTopic maps a bus key to a legal Kafka topic name. Topic names only
// allow [a-zA-Z0-9._-], while lock channel names contain colons
// ("unlock:murlock:jobs"); every other rune becomes a dot.
func kafkaTopic(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '.'
		}
	}, key)
}

// KafkaBus implements Bus over Kafka topics. Each key maps to a topic; one
// partition consumer per key is fanned out to local waiters.
type KafkaBus struct {
	producer sarama.SyncProducer
	consumer sarama.Consumer
	f        *fanout

	mu  sync.Mutex
	pcs map[string]sarama.PartitionConsumer
}

// NewKafkaBus creates a KafkaBus connecting to the given brokers.
func NewKafkaBus(brokers []string, cfg *sarama.Config) (*KafkaBus, error) {
	if !cfg.Producer.Return.Successes {
		cfg.Producer.Return.Successes = true
	}
	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = producer.Close()
		_ = client.Close()
		return nil, err
	}
	return &KafkaBus{
		producer: producer,
		consumer: consumer,
		f:        newFanout(),
		pcs:      make(map[string]sarama.PartitionConsumer),
	}, nil
}

// Publish implements Bus.Publish.
func (b *KafkaBus) Publish(_ context.Context, key string) error {
	msg := &sarama.ProducerMessage{Topic: kafkaTopic(key), Value: sarama.StringEncoder("1")}
	_, _, err := b.producer.SendMessage(msg)
	return err
}

// Subscribe implements Bus.Subscribe.
func (b *KafkaBus) Subscribe(_ context.Context, key string) (chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pcs[key]; !ok {
		pc, err := b.consumer.ConsumePartition(kafkaTopic(key), 0, sarama.OffsetNewest)
		if err != nil {
			return nil, err
		}
		b.pcs[key] = pc
		go func() {
			for range pc.Messages() {
				b.f.notify(key)
			}
		}()
	}
	return b.f.add(key), nil
}

// Unsubscribe implements Bus.Unsubscribe.
func (b *KafkaBus) Unsubscribe(_ context.Context, key string, ch chan struct{}) error {
	b.mu.Lock()
	var pc sarama.PartitionConsumer
	if b.f.remove(key, ch) {
		pc = b.pcs[key]
		delete(b.pcs, key)
	}
	b.mu.Unlock()
	if pc == nil {
		return nil
	}
	return pc.Close()
}

// Close shuts down the producer and every partition consumer.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	for key, pc := range b.pcs {
		_ = pc.Close()
		delete(b.pcs, key)
	}
	b.mu.Unlock()
	if err := b.producer.Close(); err != nil {
		_ = b.consumer.Close()
		return err
	}
	return b.consumer.Close()
}
