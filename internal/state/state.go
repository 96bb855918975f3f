package state

import (
	"sort"
	"sync"
	"time"

	"rpgpt/internal/models"

	"github.com/google/uuid"
)

// DataFrame represents a loaded table with normalized headers
type DataFrame struct {
	Headers  []string
	Rows     [][]string
	FilePath string
	FileName string
}

// ColumnIndex returns the index of a header, or -1
func (df *DataFrame) ColumnIndex(name string) int {
	for i, h := range df.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns row[col] or "" when the row is short
func (df *DataFrame) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Session holds the mutable review state of one user. Callers must hold
// the session lock (Lock/Unlock) while reading or writing its fields.
type Session struct {
	mu sync.Mutex

	ID          string
	Settings    models.FilterSettings
	Filtered    []models.QuestionRow
	Cache       *models.QACache
	CurrentPage int
	Chat        []models.ChatMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Lock serializes operations on the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records a modification.
func (s *Session) Touch() { s.UpdatedAt = time.Now() }

// SessionManager owns all live sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty manager
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create starts a session with empty settings and cache
func (m *SessionManager) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Cache:     models.NewQACache(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get retrieves a session by id
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

// Delete drops a session and everything it holds
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// IDs lists session ids ordered by creation time
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}
