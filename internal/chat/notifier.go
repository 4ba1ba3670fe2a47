package chat

import "campus-chat/internal/models"

// Notifier receives chat events for live subscribers
type Notifier interface {
	BroadcastMessage(sessionID string, message any)
	BroadcastTyping(sessionID string, typing bool)
	BroadcastStatus(sessionID string, status models.SessionStatus)
}

type nopNotifier struct{}

func (nopNotifier) BroadcastMessage(string, any) {}
func (nopNotifier) BroadcastTyping(string, bool) {}
func (nopNotifier) BroadcastStatus(string, models.SessionStatus) {}
