package chat

import (
	"sync"

	"go.uber.org/zap"

	"campus-chat/internal/logging"
)

// TurnLocks is a per-session busy flag for AI turns.
// Each holder is identified by a token; only the holder's token releases it.
type TurnLocks struct {
	holders map[string]string // sessionID -> token
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewTurnLocks creates an empty lock table
func NewTurnLocks(logger *zap.Logger) *TurnLocks {
	return &TurnLocks{
		holders: make(map[string]string),
		logger:  logging.Named(logger, "turnlock"),
	}
}

// TryAcquire takes the session's flag for token. It never blocks and reports
// false when another turn holds the flag.
func (m *TurnLocks) TryAcquire(sessionID, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if holder, busy := m.holders[sessionID]; busy {
		m.logger.Debug("Lock busy", zap.String("session_id", sessionID), zap.String("holder", holder))
		return false
	}
	m.holders[sessionID] = token
	m.logger.Debug("Acquired lock", zap.String("session_id", sessionID), zap.String("token", token))
	return true
}

// Release frees the session's flag if token still holds it
func (m *TurnLocks) Release(sessionID, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holders[sessionID] != token {
		m.logger.Warn("Stale release ignored", zap.String("session_id", sessionID), zap.String("token", token))
		return false
	}
	delete(m.holders, sessionID)
	m.logger.Debug("Released lock", zap.String("session_id", sessionID), zap.String("token", token))
	return true
}

// Holder returns the token holding the session's flag
func (m *TurnLocks) Holder(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.holders[sessionID]
	return token, ok
}
