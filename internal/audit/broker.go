package audit

import (
	"context"
	"log"
	"time"
)

const RoutingKeyPrefix = "audit."

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BrokerSink hands entries to the message broker; a consumer persists them.
type BrokerSink struct {
	pub     Publisher
	source  string
	timeout time.Duration
}

func NewBrokerSink(pub Publisher, source string) *BrokerSink {
	return &BrokerSink{pub: pub, source: source, timeout: 3 * time.Second}
}

func (s *BrokerSink) Log(ctx context.Context, action string, userID *uint, meta map[string]any) {
	entry := NewEntry(s.source, action, userID, meta)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.pub.Publish(ctx, RoutingKeyPrefix+action, entry); err != nil {
		log.Printf("[Audit] publish failed for %s: %v", action, err)
	}
}
