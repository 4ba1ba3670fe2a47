package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-chat/internal/db"
	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

// PreviewTimeLayout formats the time of a derived preview
const PreviewTimeLayout = "3:04 PM"

// MessageStore is the persistence the thread store needs
type MessageStore interface {
	InsertMessage(ctx context.Context, m models.Message, allowed ...models.SessionStatus) error
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	LastMessage(ctx context.Context, sessionID string) (*models.Message, error)
}

// ThreadStore owns the append-only message log of every session
type ThreadStore struct {
	store    MessageStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewThreadStore creates a thread store over the given message store
func NewThreadStore(store MessageStore, logger *zap.Logger) *ThreadStore {
	return &ThreadStore{
		store:    store,
		notifier: nopNotifier{},
		logger:   logging.Named(logger, "threads"),
		now:      time.Now,
		newID:    newMessageID,
	}
}

// SetNotifier sets the receiver of new message events
func (t *ThreadStore) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	t.notifier = n
}

// newMessageID returns a time-ordered UUIDv7 string
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// GetThread returns the session's messages in append order.
// A session with no messages yields an empty thread.
func (t *ThreadStore) GetThread(ctx context.Context, sessionID string) ([]models.Message, error) {
	return t.store.ListMessages(ctx, sessionID)
}

// AppendLocalMessage records a message typed by the local user.
// Only active sessions accept local messages; on any failure the thread is unchanged.
func (t *ThreadStore) AppendLocalMessage(ctx context.Context, sessionID, senderID, text string) (*models.Message, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidInput)
	}
	return t.append(ctx, sessionID, senderID, text, false, models.SessionStatusActive)
}

// AppendRemoteMessage records a message that arrived from outside, such as an
// AI reply. Pending sessions still receive remote messages.
func (t *ThreadStore) AppendRemoteMessage(ctx context.Context, sessionID, text string, isAI bool) (*models.Message, error) {
	sender := models.RemoteSenderID
	if isAI {
		sender = models.AISenderID
	}
	return t.append(ctx, sessionID, sender, text, isAI,
		models.SessionStatusActive, models.SessionStatusPending)
}

func (t *ThreadStore) append(ctx context.Context, sessionID, senderID, text string, isAI bool, allowed ...models.SessionStatus) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is empty", ErrInvalidInput)
	}

	m := models.Message{
		ID:        t.newID(),
		SessionID: sessionID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: t.now(),
		IsAI:      isAI,
	}

	if err := t.store.InsertMessage(ctx, m, allowed...); err != nil {
		err = appendError(sessionID, err)
		t.logger.Warn("Append failed",
			zap.String("session_id", sessionID),
			zap.String("sender_id", senderID),
			zap.Error(err))
		return nil, err
	}

	t.logger.Debug("Message appended",
		zap.String("session_id", sessionID),
		zap.String("message_id", m.ID),
		zap.Bool("is_ai", isAI))

	t.notifier.BroadcastMessage(sessionID, m)
	return &m, nil
}

func appendError(sessionID string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	var statusErr *db.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case models.SessionStatusPending:
			return fmt.Errorf("%w: %s", ErrSessionNotAccepted, sessionID)
		case models.SessionStatusBlocked:
			return fmt.Errorf("%w: %s", ErrSessionBlocked, sessionID)
		}
	}
	return err
}

// Preview derives the directory-row summary of a session: the last message of
// its thread, or the session's static preview when the thread is empty.
func (t *ThreadStore) Preview(ctx context.Context, s models.Session) (models.Preview, error) {
	last, err := t.store.LastMessage(ctx, s.ID)
	if errors.Is(err, db.ErrNotFound) {
		return models.Preview{Text: s.LastMessage, Time: s.LastMessageTime}, nil
	}
	if err != nil {
		return models.Preview{}, err
	}
	return models.Preview{
		Text: last.Text,
		Time: last.CreatedAt.Local().Format(PreviewTimeLayout),
	}, nil
}
