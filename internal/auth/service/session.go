package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL используется, если время жизни сессии не задано в конфигурации.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore хранит соответствие token -> userID.
type SessionStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	// Resolve возвращает ok=false для неизвестного или истёкшего токена.
	Resolve(ctx context.Context, token string) (string, bool, error)
	Revoke(ctx context.Context, token string) error
	// Cleanup удаляет истёкшие сессии и возвращает их количество.
	Cleanup(ctx context.Context) (int, error)
}

// ============================================================
// Session Manager (in-memory)
// ============================================================

type session struct {
	userID    string
	expiresAt time.Time
}

type SessionManager struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]session
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]session),
	}
}

func (m *SessionManager) Issue(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := uuid.NewString()
	m.tokens[token] = session{userID: userID, expiresAt: m.now().Add(m.ttl)}
	return token, nil
}

func (m *SessionManager) Resolve(_ context.Context, token string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.tokens[token]
	if !ok {
		return "", false, nil
	}
	if m.now().After(s.expiresAt) {
		delete(m.tokens, token)
		return "", false, nil
	}
	return s.userID, true, nil
}

func (m *SessionManager) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, token)
	return nil
}

func (m *SessionManager) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, s := range m.tokens {
		if now.After(s.expiresAt) {
			delete(m.tokens, token)
			removed++
		}
	}
	return removed, nil
}
