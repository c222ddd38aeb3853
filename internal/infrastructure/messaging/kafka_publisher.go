package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"clinic-anamnesis-api/config"
	"clinic-anamnesis-api/internal/domain/event"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// writeTimeout bounds a single produce request. Publishing happens after
// commit and is attempted once.
const writeTimeout = 3 * time.Second

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *logrus.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *logrus.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.PatientTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  1,
		WriteTimeout: writeTimeout,
	}

	return &KafkaPublisher{writer: writer, topic: cfg.PatientTopic, log: log}
}

// Publish writes evt keyed by patient id so every change to one patient
// lands on the same partition in commit order.
func (p *KafkaPublisher) Publish(ctx context.Context, evt event.PatientEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.PatientID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "event-id", Value: []byte(evt.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"event_id":   evt.ID,
			"event_type": evt.Type,
		}).Error("Failed to publish event")
		return err
	}

	p.log.WithFields(logrus.Fields{
		"event_id":   evt.ID,
		"event_type": evt.Type,
		"topic":      p.topic,
	}).Debug("Event published")

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
