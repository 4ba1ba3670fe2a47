package models

import "time"

const (
	// AISessionID is the well-known id of the single AI assistant session
	AISessionID = "chat-ai"
	// AISenderID is the reserved sender id of AI-originated messages
	AISenderID = "ai-bot"
	// RemoteSenderID tags inbound messages from non-AI remote participants
	RemoteSenderID = "remote"
)

// SessionKind classifies a chat session
type SessionKind string

const (
	SessionKindAI     SessionKind = "ai"
	SessionKindDirect SessionKind = "direct"
	SessionKindGroup  SessionKind = "group"
)

// Valid reports whether k is a known kind
func (k SessionKind) Valid() bool {
	switch k {
	case SessionKindAI, SessionKindDirect, SessionKindGroup:
		return true
	}
	return false
}

// SessionStatus is the request-gating status of a session
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusPending SessionStatus = "pending"
	SessionStatusBlocked SessionStatus = "blocked"
)

// Valid reports whether s is a known status
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusPending, SessionStatusBlocked:
		return true
	}
	return false
}

// Session is one entry in the chat directory.
// Status is the only field that changes after creation.
type Session struct {
	ID              string        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	Avatar          string        `json:"avatar" yaml:"avatar"`
	Kind            SessionKind   `json:"type" yaml:"type"`
	Status          SessionStatus `json:"status" yaml:"status"`
	LastMessage     string        `json:"last_message" yaml:"last_message"`
	LastMessageTime string        `json:"last_message_time" yaml:"last_message_time"`
	Position        int           `json:"-" yaml:"-"`
}

// IsAI reports whether the session is the AI assistant session
func (s Session) IsAI() bool {
	return s.Kind == SessionKindAI
}

// Message is a single immutable entry in a session thread
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
	IsAI      bool      `json:"is_ai"`
}

// Preview is the directory-row summary of a session, derived at read time
type Preview struct {
	Text string `json:"text"`
	Time string `json:"time"`
}

// Role is the speaker tag of a history entry sent to the AI service
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// HistoryEntry is one prior exchange given to the AI service as context
type HistoryEntry struct {
	Role Role
	Text string
}

// Profile is the editable profile of a local user
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}
