package messaging

import (
	"context"
	"log"
	"time"

	"pofcore/store"
)

const (
	drainBatchSize = 50
	maxRetries     = 10
)

// OutboxDrainer ships staged outbox rows to the broker on a fixed interval.
// Delivery is at-least-once: a row is marked sent only after the broker
// accepted it, so a crash between publish and mark can replay a message.
type OutboxDrainer struct {
	db       *store.DB
	client   Client
	source   string
	interval time.Duration
}

func NewOutboxDrainer(db *store.DB, client Client, source string, interval time.Duration) *OutboxDrainer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxDrainer{db: db, client: client, source: source, interval: interval}
}

// Run drains until the context is cancelled. With no broker configured it
// returns immediately; rows stay staged for a later deployment that has one.
func (d *OutboxDrainer) Run(ctx context.Context) {
	if d.client == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain()
		}
	}
}

func (d *OutboxDrainer) drain() {
	if !d.client.IsConnected() {
		return
	}
	msgs, err := d.db.ListPendingOutbox(drainBatchSize)
	if err != nil {
		log.Printf("messaging: list outbox: %v", err)
		return
	}
	for _, msg := range msgs {
		if msg.Retries >= maxRetries {
			log.Printf("messaging: dropping outbox %d after %d retries", msg.ID, msg.Retries)
			d.db.MarkOutboxSent(msg.ID)
			continue
		}
		env := NewEnvelope(msg.MsgType, d.source, msg.Payload)
		data, err := env.Marshal()
		if err != nil {
			log.Printf("messaging: marshal outbox %d: %v", msg.ID, err)
			continue
		}
		if err := d.client.Publish(msg.Topic, data); err != nil {
			log.Printf("messaging: publish outbox %d to %s: %v", msg.ID, msg.Topic, err)
			d.db.BumpOutboxRetries(msg.ID)
			continue
		}
		if err := d.db.MarkOutboxSent(msg.ID); err != nil {
			log.Printf("messaging: mark outbox %d sent: %v", msg.ID, err)
		}
	}
}
