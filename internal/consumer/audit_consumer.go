package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/campusevents/campus-events/internal/audit"
	amqp "github.com/rabbitmq/amqp091-go"
)

type EntryStore interface {
	Insert(ctx context.Context, e audit.Entry) error
}

type AuditConsumer struct {
	store   EntryStore
	timeout time.Duration
	done    chan struct{}
}

func NewAuditConsumer(store EntryStore) *AuditConsumer {
	return &AuditConsumer{store: store, timeout: 5 * time.Second, done: make(chan struct{})}
}

// Start listens for audit messages and persists them to the store.
func (ac *AuditConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		defer close(ac.done)
		for msg := range msgs {
			ac.handleMessage(msg)
		}
		log.Println("[AuditConsumer] channel closed, stopping consumer")
	}()
}

// Done is closed once the delivery channel has been drained.
func (ac *AuditConsumer) Done() <-chan struct{} {
	return ac.done
}

func (ac *AuditConsumer) handleMessage(msg amqp.Delivery) {
	var entry audit.Entry
	if err := json.Unmarshal(msg.Body, &entry); err != nil || entry.Action == "" {
		log.Printf("[AuditConsumer] dropping malformed message: %v", err)
		msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ac.timeout)
	defer cancel()

	if err := ac.store.Insert(ctx, entry); err != nil {
		log.Printf("[AuditConsumer] failed to store %s: %v", entry.Action, err)
		msg.Nack(false, true) // requeue
		return
	}

	msg.Ack(false)
}
