package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const Collection = "logs"

// MongoSink writes entries to the "logs" collection. Log is fire-and-forget;
// Close waits for in-flight writes.
type MongoSink struct {
	coll    *mongo.Collection
	source  string
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewMongoSink(db *mongo.Database, source string) *MongoSink {
	return &MongoSink{
		coll:    db.Collection(Collection),
		source:  source,
		timeout: 5 * time.Second,
	}
}

func (s *MongoSink) Insert(ctx context.Context, e Entry) error {
	_, err := s.coll.InsertOne(ctx, e)
	return err
}

func (s *MongoSink) Log(ctx context.Context, action string, userID *uint, meta map[string]any) {
	entry := NewEntry(s.source, action, userID, meta)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.Insert(ctx, entry); err != nil {
			log.Printf("[Audit] mongo write failed for %s: %v", entry.Action, err)
		}
	}()
}

func (s *MongoSink) Close() {
	s.wg.Wait()
}
