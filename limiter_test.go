package biolink

import (
	"testing"
	"time"
)

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	l := NewLoginLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("attempt %d blocked too early", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("fourth attempt allowed")
	}
}

func TestLoginLimiterTracksIPsIndependently(t *testing.T) {
	l := NewLoginLimiter(1, time.Minute)

	if !l.Allow("1.1.1.1") {
		t.Fatal("first ip blocked")
	}
	if !l.Allow("2.2.2.2") {
		t.Error("second ip blocked by first ip's attempts")
	}
	if l.Allow("1.1.1.1") {
		t.Error("first ip not blocked on second attempt")
	}
}

func TestLoginLimiterWindowSlides(t *testing.T) {
	l := NewLoginLimiter(1, 20*time.Millisecond)

	if !l.Allow("9.9.9.9") {
		t.Fatal("first attempt blocked")
	}
	if l.Allow("9.9.9.9") {
		t.Fatal("second attempt allowed inside window")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("9.9.9.9") {
		t.Error("attempt still blocked after window passed")
	}
}
