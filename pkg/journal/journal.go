package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/marintech/deckhand/pkg/events"
	"github.com/marintech/deckhand/pkg/log"
	"github.com/marintech/deckhand/pkg/types"
)

var (
	// Bucket names
	bucketEvents = []byte("events")
)

// Journal is an append-only, BoltDB-backed record of logger run
// transitions and diagnostics, kept for post-cruise review. It stores
// history only; desired configuration is never persisted here.
type Journal struct {
	db *bolt.DB

	mu     sync.Mutex
	broker *events.Broker
	sub    events.Subscriber
	wg     sync.WaitGroup
}

// Open creates or opens the run journal under dataDir.
func Open(dataDir string) (*Journal, error) {
	dbPath := filepath.Join(dataDir, "deckhand.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEvents); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketEvents, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close detaches from the broker, waits for the writer to drain, and
// closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.broker != nil && j.sub != nil {
		j.broker.Unsubscribe(j.sub)
		j.broker = nil
		j.sub = nil
	}
	j.mu.Unlock()

	j.wg.Wait()
	return j.db.Close()
}

// Append writes one event to the journal. Keys are timestamp-prefixed
// so iteration order is chronological.
func (j *Journal) Append(event *types.RunEvent) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%020d-%s", event.Timestamp.UnixNano(), event.ID)
		return b.Put([]byte(key), data)
	})
}

// Recent returns up to limit events, newest first. limit <= 0 means all.
func (j *Journal) Recent(limit int) ([]*types.RunEvent, error) {
	var out []*types.RunEvent
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var event types.RunEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			out = append(out, &event)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ByLogger returns up to limit events for one logger, newest first.
func (j *Journal) ByLogger(logger string, limit int) ([]*types.RunEvent, error) {
	var out []*types.RunEvent
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var event types.RunEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			if event.Logger != logger {
				continue
			}
			out = append(out, &event)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

// Follow subscribes to the broker and appends every published event
// until the subscription channel closes (broker Unsubscribe or Stop).
func (j *Journal) Follow(broker *events.Broker) {
	sub := broker.Subscribe()
	j.mu.Lock()
	j.broker = broker
	j.sub = sub
	j.mu.Unlock()

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		logger := log.WithComponent("journal")
		for event := range sub {
			if err := j.Append(event); err != nil {
				logger.Error().Err(err).Str("event", string(event.Type)).Msg("failed to journal event")
			}
		}
	}()
}
