package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus-chat/internal/db"
	"campus-chat/internal/models"
)

const testUser = "me"

type testEnv struct {
	db        *db.DB
	directory *Directory
	threads   *ThreadStore
	gate      *RequestGate
	notifier  *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	sessions := []models.Session{
		{ID: models.AISessionID, Name: "UniBot Assistant", Kind: models.SessionKindAI, Status: models.SessionStatusActive,
			LastMessage: "How can I help you today?", LastMessageTime: "Now", Position: 0},
		{ID: "chat-1", Name: "Music Club Group", Kind: models.SessionKindGroup, Status: models.SessionStatusActive,
			LastMessage: "Jam session at 5?", LastMessageTime: "10:30 AM", Position: 1},
		{ID: "chat-2", Name: "Sarah Jenkins", Kind: models.SessionKindDirect, Status: models.SessionStatusActive,
			LastMessage: "See you at the cafeteria!", LastMessageTime: "Yesterday", Position: 2},
		{ID: "chat-3", Name: "Unknown Student", Kind: models.SessionKindDirect, Status: models.SessionStatusPending,
			LastMessage: "Hi, I saw you at the hackathon. Are you looking for a teammate?", LastMessageTime: "Tue", Position: 3},
	}
	for _, s := range sessions {
		_, err := database.InsertSession(context.Background(), s)
		require.NoError(t, err)
	}

	notifier := &recordingNotifier{}
	logger := zap.NewNop()

	directory := NewDirectory(database, logger)
	directory.SetNotifier(notifier)
	threads := NewThreadStore(database, logger)
	threads.SetNotifier(notifier)

	return &testEnv{
		db:        database,
		directory: directory,
		threads:   threads,
		gate:      NewRequestGate(directory, logger),
		notifier:  notifier,
	}
}

func (e *testEnv) thread(t *testing.T, sessionID string) []models.Message {
	t.Helper()
	messages, err := e.threads.GetThread(context.Background(), sessionID)
	require.NoError(t, err)
	return messages
}

func (e *testEnv) visibleIDs(t *testing.T) []string {
	t.Helper()
	var ids []string
	for s, err := range e.directory.ListVisible(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	return ids
}

type recordedEvent struct {
	Kind      string
	SessionID string
	Value     any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) record(e recordedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) BroadcastMessage(sessionID string, message any) {
	n.record(recordedEvent{Kind: "message", SessionID: sessionID, Value: message})
}

func (n *recordingNotifier) BroadcastTyping(sessionID string, typing bool) {
	n.record(recordedEvent{Kind: "typing", SessionID: sessionID, Value: typing})
}

func (n *recordingNotifier) BroadcastStatus(sessionID string, status models.SessionStatus) {
	n.record(recordedEvent{Kind: "status", SessionID: sessionID, Value: status})
}

func (n *recordingNotifier) kinds(sessionID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []string
	for _, e := range n.events {
		if e.SessionID == sessionID {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// fakeReplier answers with a fixed reply or error. When gate is set, each
// call waits for it to close or for the context to end.
type fakeReplier struct {
	reply string
	err   error
	gate  chan struct{}

	mu      sync.Mutex
	latest  []string
	history [][]models.HistoryEntry
	started chan struct{}
}

func newFakeReplier(reply string, err error) *fakeReplier {
	return &fakeReplier{reply: reply, err: err, started: make(chan struct{}, 16)}
}

func (f *fakeReplier) GenerateReply(ctx context.Context, latest string, history []models.HistoryEntry) (string, error) {
	f.mu.Lock()
	f.latest = append(f.latest, latest)
	f.history = append(f.history, history)
	f.mu.Unlock()
	f.started <- struct{}{}

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeReplier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.latest)
}
