package activity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeStream records frames in memory and can simulate a dead transport.
type fakeStream struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	closed     bool
	failWrites bool
}

func (s *fakeStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return 0, errors.New("broken pipe")
	}
	return s.buf.Write(p)
}

func (s *fakeStream) Flush() {}

func (s *fakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) setClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// frames returns the data payloads written so far, one per SSE frame.
func (s *fakeStream) frames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := strings.Split(strings.TrimSuffix(s.buf.String(), "\n\n"), "\n\n")
	var out []string
	for _, f := range raw {
		if f == "" {
			continue
		}
		out = append(out, strings.TrimPrefix(f, "data: "))
	}
	return out
}

func newTestBroadcaster(t *testing.T, interval time.Duration) *Broadcaster {
	t.Helper()
	b := NewBroadcaster(zap.NewNop(), interval)
	t.Cleanup(b.Close)
	return b
}

func TestSubscribeWritesConnectedFrame(t *testing.T) {
	b := newTestBroadcaster(t, time.Minute)
	s := &fakeStream{}
	if _, _, err := b.Subscribe(s); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	frames := s.frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	var marker struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(frames[0]), &marker); err != nil {
		t.Fatalf("connected frame is not JSON: %v", err)
	}
	if marker.Type != "connected" {
		t.Errorf("marker type = %q, want %q", marker.Type, "connected")
	}
}

func TestPublishFanOut(t *testing.T) {
	b := newTestBroadcaster(t, time.Minute)

	// Publishing with no subscribers must be a no-op, not a panic.
	b.Publish(Event{Method: "POST", Path: "/api/content"})

	streams := make([]*fakeStream, 5)
	for i := range streams {
		streams[i] = &fakeStream{}
		if _, _, err := b.Subscribe(streams[i]); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	ev := Event{
		Method:    "POST",
		Path:      "/api/content",
		Details:   "API Request Processed",
		Timestamp: time.Now().UTC(),
	}
	b.Publish(ev)

	for i, s := range streams {
		frames := s.frames()
		if len(frames) != 2 {
			t.Fatalf("stream %d: got %d frames, want 2 (connected + event)", i, len(frames))
		}
		var got Event
		if err := json.Unmarshal([]byte(frames[1]), &got); err != nil {
			t.Fatalf("stream %d: event frame is not JSON: %v", i, err)
		}
		if got.Method != ev.Method || got.Path != ev.Path || got.Details != ev.Details {
			t.Errorf("stream %d: got event %+v, want %+v", i, got, ev)
		}
	}
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	b := newTestBroadcaster(t, time.Minute)
	s := &fakeStream{}
	if _, _, err := b.Subscribe(s); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	paths := []string{"/api/content", "/api/logout", "/api/images"}
	for _, p := range paths {
		b.Publish(Event{Method: "POST", Path: p})
	}

	frames := s.frames()
	if len(frames) != len(paths)+1 {
		t.Fatalf("got %d frames, want %d", len(frames), len(paths)+1)
	}
	for i, p := range paths {
		var got Event
		if err := json.Unmarshal([]byte(frames[i+1]), &got); err != nil {
			t.Fatalf("frame %d: %v", i+1, err)
		}
		if got.Path != p {
			t.Errorf("frame %d path = %q, want %q", i+1, got.Path, p)
		}
	}
}

func TestPublishIsolatesDeadStream(t *testing.T) {
	b := newTestBroadcaster(t, time.Minute)

	alive1 := &fakeStream{}
	dead := &fakeStream{}
	alive2 := &fakeStream{}

	if _, _, err := b.Subscribe(alive1); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	// Subscribe the doomed stream healthy so its connected frame goes
	// through, then break it.
	_, gone, err := b.Subscribe(dead)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	dead.mu.Lock()
	dead.failWrites = true
	dead.mu.Unlock()
	if _, _, err := b.Subscribe(alive2); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish(Event{Method: "POST", Path: "/api/content"})

	for i, s := range []*fakeStream{alive1, alive2} {
		if frames := s.frames(); len(frames) != 2 {
			t.Errorf("live stream %d: got %d frames, want 2", i, len(frames))
		}
	}
	if n := b.Len(); n != 2 {
		t.Errorf("live set size = %d, want 2 (dead stream evicted)", n)
	}
	select {
	case <-gone:
	default:
		t.Error("dead subscriber's gone channel not closed")
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := newTestBroadcaster(t, time.Minute)

	id1, _, err := b.Subscribe(&fakeStream{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, _, err := b.Subscribe(&fakeStream{}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Unsubscribe(id1)
	b.Unsubscribe(id1)    // repeat
	b.Unsubscribe(424242) // never subscribed

	if n := b.Len(); n != 1 {
		t.Errorf("live set size = %d, want 1", n)
	}
}

func TestReaperEvictsClosedStream(t *testing.T) {
	b := newTestBroadcaster(t, 10*time.Millisecond)

	s := &fakeStream{}
	_, gone, err := b.Subscribe(s)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, _, err := b.Subscribe(&fakeStream{}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	s.setClosed()

	deadline := time.Now().Add(2 * time.Second)
	for b.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("closed stream not reaped, live set size = %d", b.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case <-gone:
	case <-time.After(time.Second):
		t.Error("reaped subscriber's gone channel not closed")
	}
}

func TestCloseReleasesSubscribers(t *testing.T) {
	b := NewBroadcaster(zap.NewNop(), time.Minute)
	_, gone, err := b.Subscribe(&fakeStream{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Close()
	b.Close() // must be safe to call twice

	if n := b.Len(); n != 0 {
		t.Errorf("live set size after Close = %d, want 0", n)
	}
	select {
	case <-gone:
	default:
		t.Error("gone channel not closed on Close")
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	b := newTestBroadcaster(t, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id, _, err := b.Subscribe(&fakeStream{})
				if err != nil {
					t.Errorf("Subscribe failed: %v", err)
					return
				}
				b.Publish(Event{Method: "POST", Path: "/api/content"})
				b.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	if n := b.Len(); n != 0 {
		t.Errorf("live set size = %d, want 0", n)
	}
}
