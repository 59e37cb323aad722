package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domain "github.com/soigrad/soi/internal/domain"
	"github.com/soigrad/soi/internal/repositories"
)

// SessionRepository keeps wizard sessions in process memory behind a mutex.
// All stored and returned values are deep copies so callers cannot mutate
// repository state through shared slices.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.WizardSession
}

// NewSessionRepository constructs an empty in-memory session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.WizardSession)}
}

// Insert stores a new session.
func (r *SessionRepository) Insert(_ context.Context, session domain.WizardSession) error {
	id := strings.TrimSpace(session.ID)
	if id == "" {
		return repositories.ErrSessionNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return repositories.ErrSessionExists
	}
	r.sessions[id] = session.Clone()
	return nil
}

// Get returns a copy of the session with the given id.
func (r *SessionRepository) Get(_ context.Context, id string) (domain.WizardSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[strings.TrimSpace(id)]
	if !ok {
		return domain.WizardSession{}, repositories.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Update replaces a stored session.
func (r *SessionRepository) Update(_ context.Context, session domain.WizardSession) error {
	id := strings.TrimSpace(session.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repositories.ErrSessionNotFound
	}
	r.sessions[id] = session.Clone()
	return nil
}

// Delete removes a session. Deleting an absent session reports not found.
func (r *SessionRepository) Delete(_ context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[trimmed]; !ok {
		return repositories.ErrSessionNotFound
	}
	delete(r.sessions, trimmed)
	return nil
}

// DeleteExpired removes sessions idle since before the cutoff and returns the
// removed sessions.
func (r *SessionRepository) DeleteExpired(_ context.Context, cutoff time.Time) ([]domain.WizardSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []domain.WizardSession
	for id, session := range r.sessions {
		if session.UpdatedAt.Before(cutoff) {
			removed = append(removed, session)
			delete(r.sessions, id)
		}
	}
	return removed, nil
}

// Len reports the number of live sessions.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
