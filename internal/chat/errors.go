package chat

import "errors"

var (
	// ErrInvalidInput is returned for empty or whitespace-only message text
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound is returned when a session id is not in the directory
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotAccepted is returned when sending into a pending session
	ErrSessionNotAccepted = errors.New("session not accepted")
	// ErrSessionBlocked is returned when writing to a declined session
	ErrSessionBlocked = errors.New("session blocked")
	// ErrSessionNotPending is returned when accepting or declining a session that is not pending
	ErrSessionNotPending = errors.New("session not pending")
	// ErrInvalidTransition is returned for a status change the lifecycle does not allow
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTurnInProgress is returned when an AI turn is already awaiting its reply
	ErrTurnInProgress = errors.New("ai turn in progress")
	// ErrShuttingDown is returned for AI sends once the coordinator has shut down
	ErrShuttingDown = errors.New("coordinator shutting down")
)
