package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const upsertTimeout = 10 * time.Second

type ResourceUpserter interface {
	Upsert(ctx context.Context, r *models.Resource) error
}

// ResourceMessage is the resource.* payload sent by the admin process.
type ResourceMessage struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Instrument   string          `json:"instrument"`
	Venue        string          `json:"venue"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	Active       bool            `json:"active"`
}

func (m ResourceMessage) validate() error {
	if m.ID == 0 {
		return fmt.Errorf("missing id")
	}
	if m.Name == "" {
		return fmt.Errorf("resource %d: missing name", m.ID)
	}
	if !models.IsInstrument(m.Instrument) {
		return fmt.Errorf("resource %d: unknown instrument %q", m.ID, m.Instrument)
	}
	if m.PricePerHour.IsNegative() {
		return fmt.Errorf("resource %d: negative price", m.ID)
	}
	return nil
}

type ResourceConsumer struct {
	resources ResourceUpserter
	log       *zap.Logger
}

func NewResourceConsumer(resources ResourceUpserter, log *zap.Logger) *ResourceConsumer {
	return &ResourceConsumer{resources: resources, log: log}
}

// Start syncs resources from msgs until the channel closes.
func (rc *ResourceConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			rc.handleMessage(msg)
		}
		rc.log.Info("resource consumer stopped, channel closed")
	}()
}

// handleMessage acks a synced resource. Undecodable or invalid payloads are
// dropped; store failures are requeued.
func (rc *ResourceConsumer) handleMessage(msg amqp.Delivery) {
	var m ResourceMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		rc.log.Warn("drop resource message, bad json", zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	if err := m.validate(); err != nil {
		rc.log.Warn("drop resource message", zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
	defer cancel()
	resource := &models.Resource{
		ID:           m.ID,
		Name:         m.Name,
		Instrument:   m.Instrument,
		Venue:        m.Venue,
		PricePerHour: m.PricePerHour,
		Active:       m.Active,
	}
	if err := rc.resources.Upsert(ctx, resource); err != nil {
		rc.log.Error("upsert resource failed", zap.Uint("id", m.ID), zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}

	rc.log.Info("resource synced", zap.Uint("id", m.ID), zap.String("name", m.Name), zap.Bool("active", m.Active))
	_ = msg.Ack(false)
}
