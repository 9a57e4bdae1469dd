package chat

import (
	"fmt"
	"testing"
	"time"
)

// ========== history cap ==========

func runTurns(s *Store, id string, n int) {
	for i := 0; i < n; i++ {
		s.Begin(id, "system prompt", fmt.Sprintf("user message %d", i))
		s.Commit(id, fmt.Sprintf("assistant reply %d", i))
	}
}

func TestHistoryCappedAtEight(t *testing.T) {
	s := NewStore(10, time.Hour)
	runTurns(s, "sess-1", 20)

	h := s.History("sess-1")
	if len(h) != maxHistory {
		t.Fatalf("history length = %d, want %d", len(h), maxHistory)
	}
	if h[0].Role != "system" {
		t.Errorf("position 0 role = %q, want system", h[0].Role)
	}
	// Most recent exchanges survive trimming.
	last := h[len(h)-1]
	if last.Role != "assistant" || last.Content != "assistant reply 19" {
		t.Errorf("last message = %+v, want latest assistant reply", last)
	}
}

func TestSystemPromptUniqueAndRefreshed(t *testing.T) {
	s := NewStore(10, time.Hour)
	s.Begin("sess-1", "prompt one", "hello")
	s.Commit("sess-1", "hi")
	s.Begin("sess-1", "prompt two", "again")
	s.Commit("sess-1", "sure")

	h := s.History("sess-1")
	systemCount := 0
	for _, m := range h {
		if m.Role == "system" {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Errorf("system message count = %d, want 1", systemCount)
	}
	if h[0].Role != "system" || h[0].Content != "prompt two" {
		t.Errorf("position 0 = %+v, want refreshed system prompt", h[0])
	}
}

func TestBeginReturnsWindowCopy(t *testing.T) {
	s := NewStore(10, time.Hour)
	window := s.Begin("sess-1", "prompt", "hello")
	window[0].Content = "mutated"

	h := s.History("sess-1")
	if h[0].Content != "prompt" {
		t.Error("mutating the returned window changed stored history")
	}
}

// ========== bounds ==========

func TestLRUEvictionAtCapacity(t *testing.T) {
	s := NewStore(2, time.Hour)
	s.Begin("a", "p", "m")
	s.Begin("b", "p", "m")

	// Touch "a" so "b" becomes least recently used.
	s.Begin("a", "p", "m2")
	s.Begin("c", "p", "m")

	if s.Len() != 2 {
		t.Fatalf("store size = %d, want 2", s.Len())
	}
	if s.History("b") != nil {
		t.Error("LRU session b should have been evicted")
	}
	if s.History("a") == nil || s.History("c") == nil {
		t.Error("sessions a and c should survive")
	}
}

func TestTTLExpiry(t *testing.T) {
	s := NewStore(10, 30*time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Begin("sess-1", "p", "hello")
	s.Commit("sess-1", "hi")

	s.now = func() time.Time { return base.Add(29 * time.Minute) }
	if s.History("sess-1") == nil {
		t.Fatal("session expired before TTL")
	}

	s.now = func() time.Time { return base.Add(61 * time.Minute) }
	if s.History("sess-1") != nil {
		t.Error("session should have expired after TTL")
	}

	// A new turn on the expired id starts a fresh conversation.
	window := s.Begin("sess-1", "p", "back again")
	if len(window) != 2 {
		t.Errorf("fresh session window length = %d, want 2", len(window))
	}
}

func TestUnknownSessionHistoryNil(t *testing.T) {
	s := NewStore(10, time.Hour)
	if h := s.History("nope"); h != nil {
		t.Errorf("History(unknown) = %v, want nil", h)
	}
}
