// Package activity provides the live activity dashboard feed: an
// in-process fan-out of request events over Server-Sent-Events streams.
package activity

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a single dashboard entry. Events are ephemeral: they exist
// only for the duration of one fan-out and are never persisted.
type Event struct {
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream is the outbound half of one subscriber connection. Closed
// reports whether the underlying transport is already gone; the reaper
// uses it to evict subscribers whose close notification was missed.
type Stream interface {
	io.Writer
	Flush()
	Closed() bool
}

// DefaultReapInterval is the production reaper period.
const DefaultReapInterval = 30 * time.Second

type subscriber struct {
	stream Stream
	gone   chan struct{}
}

// Broadcaster owns the set of live subscriber streams and fans events
// out to all of them. All methods are safe for concurrent use.
type Broadcaster struct {
	logger *zap.Logger

	mu   sync.Mutex
	subs map[int64]*subscriber

	done     chan struct{}
	stopOnce sync.Once
}

// NewBroadcaster creates a Broadcaster and starts its reaper goroutine.
// Call Close to stop the reaper and release all subscribers.
func NewBroadcaster(logger *zap.Logger, reapInterval time.Duration) *Broadcaster {
	b := &Broadcaster{
		logger: logger,
		subs:   make(map[int64]*subscriber),
		done:   make(chan struct{}),
	}
	go b.reap(reapInterval)
	return b
}

// Subscribe registers a stream and immediately pushes the connected
// marker frame so clients can tell "stream open" from "no events yet".
// The returned channel is closed when the subscriber is removed, by
// either eviction or Close.
func (b *Broadcaster) Subscribe(s Stream) (int64, <-chan struct{}, error) {
	sub := &subscriber{stream: s, gone: make(chan struct{})}

	b.mu.Lock()
	defer b.mu.Unlock()
	// Wall-clock id, matching the connection-open timestamp. Nudged
	// upward on collision so an existing subscriber is never displaced.
	id := time.Now().UnixNano()
	for {
		if _, taken := b.subs[id]; !taken {
			break
		}
		id++
	}
	if err := writeFrame(s, []byte(`{"type":"connected","message":"Activity stream connected"}`)); err != nil {
		return 0, nil, fmt.Errorf("write connected frame: %w", err)
	}
	b.subs[id] = sub
	return id, sub.gone, nil
}

// Unsubscribe removes a subscriber. Unknown ids are a no-op.
func (b *Broadcaster) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(id)
}

// Publish serializes the event once and writes it to every live
// subscriber. A failing stream is logged and removed; it never aborts
// delivery to the others and never surfaces to the caller.
func (b *Broadcaster) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("marshal activity event", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var failed []int64
	for id, sub := range b.subs {
		if err := writeFrame(sub.stream, payload); err != nil {
			b.logger.Warn("drop dead activity subscriber",
				zap.Int64("subscriber", id), zap.Error(err))
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		b.removeLocked(id)
	}
}

// Len reports the current number of live subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close stops the reaper and releases every subscriber. Events published
// after Close reach nobody.
func (b *Broadcaster) Close() {
	b.stopOnce.Do(func() { close(b.done) })
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.subs {
		b.removeLocked(id)
	}
}

// reap periodically evicts subscribers whose transport reports itself
// closed. It is a backstop for missed close notifications, not the
// primary cleanup path.
func (b *Broadcaster) reap(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
		}
		b.mu.Lock()
		for id, sub := range b.subs {
			if sub.stream.Closed() {
				b.logger.Info("reap closed activity subscriber", zap.Int64("subscriber", id))
				b.removeLocked(id)
			}
		}
		b.mu.Unlock()
	}
}

func (b *Broadcaster) removeLocked(id int64) {
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.gone)
}

// writeFrame emits one SSE frame: "data: <payload>\n\n".
func writeFrame(s Stream, payload []byte) error {
	if _, err := fmt.Fprintf(s, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.Flush()
	return nil
}
