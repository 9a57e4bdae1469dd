package chat

import (
	"container/list"
	"log"
	"sync"
	"time"
)

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// maxHistory caps a session's message list: the system prompt plus the most
// recent exchanges. Oldest non-system messages are evicted on overflow.
const maxHistory = 8

// session is one conversation's state.
type session struct {
	id       string
	messages []Message
	lastUsed time.Time
}

// Store is a bounded in-memory session store. Sessions are keyed by
// caller-supplied id, evicted least-recently-used at capacity and lazily
// expired after a TTL. All access is serialized by a mutex, so concurrent
// requests against the same session id see a consistent message list.
type Store struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	sessions map[string]*list.Element
	order    *list.List // front = most recently used
	now      func() time.Time
}

// NewStore returns a Store holding at most maxSize sessions, each expiring
// ttl after its last use.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		maxSize:  maxSize,
		ttl:      ttl,
		sessions: make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// get returns the live session for id, dropping it first if expired.
// Caller must hold mu.
func (s *Store) get(id string) *session {
	el, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess := el.Value.(*session)
	if s.ttl > 0 && s.now().Sub(sess.lastUsed) > s.ttl {
		s.order.Remove(el)
		delete(s.sessions, id)
		return nil
	}
	s.order.MoveToFront(el)
	return sess
}

// create adds an empty session for id, evicting the LRU entry at capacity.
// Caller must hold mu.
func (s *Store) create(id string) *session {
	if s.order.Len() >= s.maxSize {
		oldest := s.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*session)
			s.order.Remove(oldest)
			delete(s.sessions, evicted.id)
			log.Printf("session store: evicted session %s", evicted.id)
		}
	}
	sess := &session{id: id}
	s.sessions[id] = s.order.PushFront(sess)
	return sess
}

// trim enforces the history cap: position 0 (system prompt) is kept, the
// oldest non-system messages are dropped.
func trim(messages []Message) []Message {
	if len(messages) <= maxHistory {
		return messages
	}
	keep := maxHistory - 1
	trimmed := make([]Message, 0, maxHistory)
	trimmed = append(trimmed, messages[0])
	trimmed = append(trimmed, messages[len(messages)-keep:]...)
	return trimmed
}

// Begin prepares a session for one chat turn: the system prompt is inserted
// or refreshed at position 0, the user message appended, and the history
// trimmed. It returns a copy of the message window to send to the model.
func (s *Store) Begin(id, systemPrompt, userMessage string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(id)
	if sess == nil {
		sess = s.create(id)
	}
	sess.lastUsed = s.now()

	if len(sess.messages) == 0 || sess.messages[0].Role != "system" {
		sess.messages = append([]Message{{Role: "system", Content: systemPrompt}}, sess.messages...)
	} else {
		sess.messages[0].Content = systemPrompt
	}

	sess.messages = append(sess.messages, Message{Role: "user", Content: userMessage})
	sess.messages = trim(sess.messages)

	window := make([]Message, len(sess.messages))
	copy(window, sess.messages)
	return window
}

// Commit appends the assistant's reply to the session and re-trims. A
// session evicted between Begin and Commit is silently recreated.
func (s *Store) Commit(id, assistantMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(id)
	if sess == nil {
		sess = s.create(id)
	}
	sess.lastUsed = s.now()
	sess.messages = append(sess.messages, Message{Role: "assistant", Content: assistantMessage})
	sess.messages = trim(sess.messages)
}

// History returns a copy of the session's messages, or nil for an unknown
// or expired session.
func (s *Store) History(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(id)
	if sess == nil {
		return nil
	}
	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
