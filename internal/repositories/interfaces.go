package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/soigrad/soi/internal/domain"
)

var (
	// ErrSessionNotFound indicates the requested session does not exist or
	// has already been discarded.
	ErrSessionNotFound = errors.New("repository: session not found")
	// ErrSessionExists indicates an insert collided with an existing id.
	ErrSessionExists = errors.New("repository: session already exists")
)

// SessionRepository stores in-flight wizard sessions. Implementations are
// in-memory only: orders are never persisted, so a restart discards every
// open session by design.
type SessionRepository interface {
	Insert(ctx context.Context, session domain.WizardSession) error
	Get(ctx context.Context, id string) (domain.WizardSession, error)
	Update(ctx context.Context, session domain.WizardSession) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions whose last activity is older than the
	// cutoff and returns them so callers can release attached resources.
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]domain.WizardSession, error)
}
