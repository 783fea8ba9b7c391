// Package events publishes pipeline notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"newsvec/types"

	"github.com/IBM/sarama"
)

// IngestedEvent is the payload emitted for every newly stored article.
type IngestedEvent struct {
	ArticleID  string    `json:"article_id"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	PubDate    time.Time `json:"pub_date"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Publisher emits article events to a Kafka topic. Publish failures are
// logged and never propagate into the ingestion path.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher connects a synchronous producer to the given brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Publisher{producer: producer, topic: topic}, nil
}

// ArticleIngested publishes an IngestedEvent keyed by article ID.
func (p *Publisher) ArticleIngested(_ context.Context, a *types.Article) {
	event := IngestedEvent{
		ArticleID:  a.ID,
		Title:      a.Title,
		Link:       a.Link,
		PubDate:    a.PubDate,
		IngestedAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to encode ingest event for %s: %v", a.ID, err)
		return
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(a.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		log.Printf("Warning: failed to publish ingest event for %s: %v", a.ID, err)
	}
}

// Close shuts the producer down.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
