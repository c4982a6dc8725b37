package gearimport

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an untouched wizard session survives.
const DefaultSessionTTL = time.Hour

// Session is the state of one import wizard run. It owns the uploaded file
// at FilePath.
type Session struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`

	HeaderRow int      `json:"header_row"`
	Headers   []string `json:"headers"`

	Mapping             map[Field]string  `json:"mapping,omitempty"`
	WeightUnit          WeightUnit        `json:"weight_unit"`
	UnknownCategories   []string          `json:"unknown_categories,omitempty"`
	CategoryResolutions map[string]string `json:"category_resolutions,omitempty"`
	DuplicateAction     DuplicateAction   `json:"duplicate_action,omitempty"`

	Step      Step      `json:"step"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) clone() *Session {
	c := *s
	c.Headers = slices.Clone(s.Headers)
	c.Mapping = maps.Clone(s.Mapping)
	c.UnknownCategories = slices.Clone(s.UnknownCategories)
	c.CategoryResolutions = maps.Clone(s.CategoryResolutions)
	return &c
}

// SessionStore keeps wizard sessions between requests.
type SessionStore interface {
	// Save stores s and extends its expiry.
	Save(ctx context.Context, s *Session) error
	// Get returns the session if it exists, has not expired and belongs to
	// userID. Anything else is ErrSessionExpired.
	Get(ctx context.Context, userID, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore keeps sessions in process memory. Expired sessions are
// dropped on access.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a store whose sessions expire after ttl.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Save stores a copy of sess.
func (m *MemorySessionStore) Save(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupLocked(now)

	sess.ExpiresAt = now.Add(m.ttl)
	m.sessions[sess.ID] = sess.clone()
	return nil
}

// Get returns a copy of the session.
func (m *MemorySessionStore) Get(_ context.Context, userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cleanupLocked(m.now())

	sess, ok := m.sessions[strings.TrimSpace(id)]
	if !ok || sess.UserID != userID {
		return nil, ErrSessionExpired
	}
	return sess.clone(), nil
}

// Delete removes a session. Missing sessions are ignored.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked(m.now())
	return len(m.sessions)
}

func (m *MemorySessionStore) cleanupLocked(now time.Time) {
	for id, sess := range m.sessions {
		if now.After(sess.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}

var _ SessionStore = (*MemorySessionStore)(nil)
