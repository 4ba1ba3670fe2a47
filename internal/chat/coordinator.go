package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"campus-chat/internal/logging"
	"campus-chat/internal/logic"
	"campus-chat/internal/models"
)

// FallbackReply is appended in place of the AI reply whenever the remote call fails
const FallbackReply = "Sorry, I'm having trouble processing your request right now."

// DefaultReplyTimeout bounds a single AI remote call
const DefaultReplyTimeout = 20 * time.Second

var (
	errNoReplier  = errors.New("no ai replier configured")
	errEmptyReply = errors.New("empty ai reply")
)

// Replier produces the AI reply to the latest user text given prior history
type Replier interface {
	GenerateReply(ctx context.Context, latest string, history []models.HistoryEntry) (string, error)
}

// TurnState is the AI turn state of a session
type TurnState string

const (
	TurnIdle          TurnState = "idle"
	TurnAwaitingReply TurnState = "awaiting_reply"
)

// Turn is one outstanding AI exchange
type Turn struct {
	ID        string
	SessionID string

	cancel context.CancelFunc
	done   chan struct{}
	reply  *models.Message
}

// Done is closed once the reply, or the fallback, has been appended
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Reply returns the appended reply. It is nil before Done is closed.
func (t *Turn) Reply() *models.Message {
	select {
	case <-t.done:
		return t.reply
	default:
		return nil
	}
}

// SendResult is the outcome of a send
type SendResult struct {
	Message *models.Message
	// Turn is set when the send started an AI turn
	Turn *Turn
}

// Coordinator runs sends and drives AI turns for the AI session
type Coordinator struct {
	threads  *ThreadStore
	replier  Replier
	locks    *TurnLocks
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	newToken func() string

	turns  map[string]*Turn // token -> turn
	closed bool
	mu     sync.Mutex
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator. A nil replier makes every AI turn
// settle with the fallback reply. A non-positive timeout uses DefaultReplyTimeout.
func NewCoordinator(threads *ThreadStore, replier Replier, timeout time.Duration, logger *zap.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	logger = logging.Named(logger, "coordinator")
	return &Coordinator{
		threads:  threads,
		replier:  replier,
		locks:    NewTurnLocks(logger),
		notifier: nopNotifier{},
		timeout:  timeout,
		logger:   logger,
		newToken: newMessageID,
		turns:    make(map[string]*Turn),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetNotifier sets the receiver of typing events
func (c *Coordinator) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	c.notifier = n
}

// Send appends the user's message. For the AI session it also starts an AI
// turn, which settles asynchronously by appending exactly one reply.
func (c *Coordinator) Send(ctx context.Context, sessionID, senderID, text string) (*SendResult, error) {
	if sessionID != models.AISessionID {
		m, err := c.threads.AppendLocalMessage(ctx, sessionID, senderID, text)
		if err != nil {
			return nil, err
		}
		return &SendResult{Message: m}, nil
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is empty", ErrInvalidInput)
	}

	if err := c.reserve(); err != nil {
		c.logger.Info("Send rejected, shutting down", zap.String("session_id", sessionID))
		return nil, err
	}

	token := c.newToken()
	if !c.locks.TryAcquire(sessionID, token) {
		c.wg.Done()
		c.logger.Info("Send rejected, turn in progress", zap.String("session_id", sessionID))
		return nil, ErrTurnInProgress
	}

	prior, err := c.threads.GetThread(ctx, sessionID)
	if err != nil {
		c.locks.Release(sessionID, token)
		c.wg.Done()
		return nil, err
	}
	history := logic.BuildHistory(prior, senderID)

	m, err := c.threads.AppendLocalMessage(ctx, sessionID, senderID, text)
	if err != nil {
		c.locks.Release(sessionID, token)
		c.wg.Done()
		return nil, err
	}

	turnCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	turn := &Turn{
		ID:        token,
		SessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.turns[token] = turn
	c.mu.Unlock()

	c.logger.Info("AI turn started",
		zap.String("session_id", sessionID),
		zap.String("turn_id", token),
		zap.Int("history", len(history)))
	c.notifier.BroadcastTyping(sessionID, true)

	go c.run(turnCtx, turn, text, history)

	return &SendResult{Message: m, Turn: turn}, nil
}

// reserve counts a turn in the wait group before its user message is appended
func (c *Coordinator) reserve() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrShuttingDown
	}
	c.wg.Add(1)
	return nil
}

func (c *Coordinator) run(ctx context.Context, turn *Turn, latest string, history []models.HistoryEntry) {
	defer c.wg.Done()
	defer turn.cancel()

	start := time.Now()
	text, err := c.generate(ctx, latest, history)
	if err != nil {
		c.logger.Warn("AI reply failed, using fallback",
			zap.String("session_id", turn.SessionID),
			zap.String("turn_id", turn.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		text = FallbackReply
	}

	// The reply is appended even when the turn was cancelled
	reply, err := c.threads.AppendRemoteMessage(context.WithoutCancel(ctx), turn.SessionID, text, true)
	if err != nil {
		c.logger.Error("AI reply append failed",
			zap.String("session_id", turn.SessionID),
			zap.String("turn_id", turn.ID),
			zap.Error(err))
	}
	turn.reply = reply

	c.mu.Lock()
	delete(c.turns, turn.ID)
	c.mu.Unlock()
	c.locks.Release(turn.SessionID, turn.ID)

	c.notifier.BroadcastTyping(turn.SessionID, false)
	close(turn.done)

	c.logger.Info("AI turn completed",
		zap.String("session_id", turn.SessionID),
		zap.String("turn_id", turn.ID),
		zap.Duration("elapsed", time.Since(start)))
}

func (c *Coordinator) generate(ctx context.Context, latest string, history []models.HistoryEntry) (string, error) {
	if c.replier == nil {
		return "", errNoReplier
	}
	text, err := c.replier.GenerateReply(ctx, latest, history)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyReply
	}
	return text, nil
}

// State reports whether the session has an outstanding AI turn
func (c *Coordinator) State(sessionID string) TurnState {
	if _, busy := c.locks.Holder(sessionID); busy {
		return TurnAwaitingReply
	}
	return TurnIdle
}

// Cancel interrupts the session's outstanding turn. The turn still settles
// with the fallback reply. It reports whether a turn was outstanding.
func (c *Coordinator) Cancel(sessionID string) bool {
	token, ok := c.locks.Holder(sessionID)
	if !ok {
		return false
	}

	c.mu.Lock()
	turn := c.turns[token]
	c.mu.Unlock()
	if turn == nil {
		return false
	}

	c.logger.Info("AI turn interrupted", zap.String("session_id", sessionID), zap.String("turn_id", token))
	turn.cancel()
	return true
}

// Shutdown stops new AI turns, cancels the outstanding ones and waits for
// them to settle. AI sends after Shutdown fail with ErrShuttingDown.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutdown started")
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Shutdown completed")
		return nil
	case <-ctx.Done():
		c.logger.Warn("Shutdown timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
