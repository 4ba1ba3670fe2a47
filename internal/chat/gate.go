package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

// RequestGate resolves pending message requests
type RequestGate struct {
	directory *Directory
	logger    *zap.Logger
}

// NewRequestGate creates a gate over the directory
func NewRequestGate(directory *Directory, logger *zap.Logger) *RequestGate {
	return &RequestGate{
		directory: directory,
		logger:    logging.Named(logger, "gate"),
	}
}

// Accept moves a pending session to active so messages can be sent
func (g *RequestGate) Accept(ctx context.Context, id string) (models.Session, error) {
	return g.resolve(ctx, id, models.SessionStatusActive)
}

// Decline blocks a pending session. It drops out of the visible directory and
// any open view of it should be closed.
func (g *RequestGate) Decline(ctx context.Context, id string) (models.Session, error) {
	return g.resolve(ctx, id, models.SessionStatusBlocked)
}

func (g *RequestGate) resolve(ctx context.Context, id string, to models.SessionStatus) (models.Session, error) {
	s, err := g.directory.changeStatus(ctx, id, to, func(s models.Session) error {
		if s.Status != models.SessionStatusPending {
			return fmt.Errorf("%w: session %s is %s", ErrSessionNotPending, s.ID, s.Status)
		}
		return nil
	})
	if err != nil {
		g.logger.Warn("Request resolution failed",
			zap.String("session_id", id),
			zap.String("to", string(to)),
			zap.Error(err))
		return s, err
	}
	g.logger.Info("Request resolved", zap.String("session_id", id), zap.String("status", string(to)))
	return s, nil
}
