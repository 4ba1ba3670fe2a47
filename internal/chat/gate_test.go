package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/models"
)

func TestAccept_ThenSendSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.threads.AppendLocalMessage(ctx, "chat-3", testUser, "Sure, let's team up")
	require.ErrorIs(t, err, ErrSessionNotAccepted)

	s, err := env.gate.Accept(ctx, "chat-3")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, s.Status)

	m, err := env.threads.AppendLocalMessage(ctx, "chat-3", testUser, "Sure, let's team up")
	require.NoError(t, err)
	assert.Equal(t, "Sure, let's team up", m.Text)
	assert.Len(t, env.thread(t, "chat-3"), 1)
}

func TestDecline_RemovesFromVisible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := env.gate.Decline(ctx, "chat-3")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusBlocked, s.Status)

	assert.NotContains(t, env.visibleIDs(t), "chat-3")

	_, err = env.threads.AppendLocalMessage(ctx, "chat-3", testUser, "hello?")
	assert.ErrorIs(t, err, ErrSessionBlocked)
}

func TestGate_RequiresPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.gate.Accept(ctx, "chat-1")
	assert.ErrorIs(t, err, ErrSessionNotPending)

	_, err = env.gate.Decline(ctx, models.AISessionID)
	assert.ErrorIs(t, err, ErrSessionNotPending)

	_, err = env.gate.Decline(ctx, "chat-3")
	require.NoError(t, err)
	_, err = env.gate.Accept(ctx, "chat-3")
	assert.ErrorIs(t, err, ErrSessionNotPending)
}

func TestGate_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.gate.Accept(context.Background(), "chat-404")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPendingThreadStaysReadable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.threads.AppendRemoteMessage(ctx, "chat-3", "Hi, I saw you at the hackathon.", false)
	require.NoError(t, err)

	messages := env.thread(t, "chat-3")
	require.Len(t, messages, 1)
	assert.Equal(t, models.RemoteSenderID, messages[0].SenderID)
}
