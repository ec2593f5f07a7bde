package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Producer publishes chat lifecycle events to Kafka. It implements
// realtime.EventPublisher. Events are keyed by chat id so all events for a
// chat land on one partition in order.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// MessageStoredEvent is the payload emitted after a message row is
// durably stored.
type MessageStoredEvent struct {
	ChatID    uint      `json:"chat_id"`
	SenderID  uint      `json:"sender_id"`
	MessageID uint      `json:"message_id"`
	StoredAt  time.Time `json:"stored_at"`
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "chat-relay"
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

func (p *Producer) PublishMessageStored(ctx context.Context, chatID, senderID, messageID uint) error {
	event := MessageStoredEvent{
		ChatID:    chatID,
		SenderID:  senderID,
		MessageID: messageID,
		StoredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", chatID)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish message stored event: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
