package conversation

import (
	"context"
	"sync"
	"time"
)

// SessionStore хранит сессии между сообщениями.
// Get возвращает новую сессию в StateIdle, если сохранённой нет.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore сессии в памяти процесса
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session // sessionID -> Session
	now      func() time.Time
}

// NewMemoryStore создаёт новое хранилище сессий
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, exists := m.sessions[id]; exists {
		// Возвращаем копию, чтобы избежать race condition
		out := *s
		return &out, nil
	}
	return newSession(id), nil
}

func (m *MemoryStore) Save(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.State == StateIdle {
		// Idle-сессию не храним
		delete(m.sessions, session.ID)
		return nil
	}

	stored := *session
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = m.now()
	}
	m.sessions[session.ID] = &stored
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// EvictIdle удаляет сессии без активности дольше timeout, возвращает количество удалённых
func (m *MemoryStore) EvictIdle(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.now().Add(-timeout)
	evicted := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(deadline) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len количество сохранённых сессий
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
