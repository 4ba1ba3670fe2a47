package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"go.uber.org/zap"

	"campus-chat/internal/db"
	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

// SessionStore is the persistence the directory needs
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, exclude models.SessionStatus) ([]models.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, from, to models.SessionStatus) (bool, error)
}

// Directory is the ordered collection of chat sessions and their request status
type Directory struct {
	store    SessionStore
	notifier Notifier
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewDirectory creates a directory over the given session store
func NewDirectory(store SessionStore, logger *zap.Logger) *Directory {
	return &Directory{
		store:    store,
		notifier: nopNotifier{},
		logger:   logging.Named(logger, "directory"),
	}
}

// SetNotifier sets the receiver of status change events
func (d *Directory) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	d.notifier = n
}

// ListVisible yields every non-blocked session in directory order.
// Each iteration reads the store afresh. A read failure is yielded once as the error.
func (d *Directory) ListVisible(ctx context.Context) iter.Seq2[models.Session, error] {
	return func(yield func(models.Session, error) bool) {
		sessions, err := d.store.ListSessions(ctx, models.SessionStatusBlocked)
		if err != nil {
			d.logger.Error("ListVisible failed", zap.Error(err))
			yield(models.Session{}, err)
			return
		}
		for _, s := range sessions {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Get returns a session by id, blocked ones included
func (d *Directory) Get(ctx context.Context, id string) (models.Session, error) {
	s, err := d.store.GetSession(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return models.Session{}, err
	}
	return *s, nil
}

// SetStatus changes a session's status. An unknown id is ignored.
// Same-status updates are no-ops; transitions the lifecycle does not allow fail
// with ErrInvalidTransition.
func (d *Directory) SetStatus(ctx context.Context, id string, status models.SessionStatus) error {
	_, err := d.changeStatus(ctx, id, status, nil)
	if errors.Is(err, ErrSessionNotFound) {
		d.logger.Debug("SetStatus ignored unknown session", zap.String("session_id", id))
		return nil
	}
	return err
}

// changeStatus serializes read-check-write of a session status.
// check, when set, runs against the current session before the lifecycle rules.
func (d *Directory) changeStatus(ctx context.Context, id string, to models.SessionStatus, check func(models.Session) error) (models.Session, error) {
	if !to.Valid() {
		return models.Session{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	if check != nil {
		if err := check(s); err != nil {
			return s, err
		}
	}

	if s.Status == to {
		return s, nil
	}

	if !canTransition(s, to) {
		return s, fmt.Errorf("%w: session %s %s -> %s", ErrInvalidTransition, id, s.Status, to)
	}

	ok, err := d.store.UpdateSessionStatus(ctx, id, s.Status, to)
	if err != nil {
		d.logger.Error("SetStatus failed", zap.String("session_id", id), zap.Error(err))
		return s, err
	}
	if !ok {
		return s, fmt.Errorf("%w: session %s changed concurrently", ErrInvalidTransition, id)
	}

	d.logger.Info("Session status changed",
		zap.String("session_id", id),
		zap.String("from", string(s.Status)),
		zap.String("to", string(to)))

	s.Status = to
	d.notifier.BroadcastStatus(id, to)
	return s, nil
}

// canTransition encodes the lifecycle: pending resolves to active or blocked,
// active may be blocked, blocked is final, and the AI session never leaves active.
func canTransition(s models.Session, to models.SessionStatus) bool {
	if s.IsAI() {
		return false
	}
	switch s.Status {
	case models.SessionStatusPending:
		return to == models.SessionStatusActive || to == models.SessionStatusBlocked
	case models.SessionStatusActive:
		return to == models.SessionStatusBlocked
	}
	return false
}
