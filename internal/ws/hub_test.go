package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
)

func init() {
	logger.Init("error")
}

type recordingSaver struct {
	calls chan savedNotification
}

type savedNotification struct {
	userID   uuid.UUID
	event    string
	ctxAlive bool
}

func (s *recordingSaver) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	s.calls <- savedNotification{
		userID:   userID,
		event:    event,
		ctxAlive: ctx.Err() == nil,
	}
	return nil
}

func TestHub_RunExitsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)

	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub loop kept running after cancellation")
	}
}

func TestHub_PersistsNotificationsDuringShutdownDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)
	saver := &recordingSaver{calls: make(chan savedNotification, 1)}
	hub.SetNotificationSaver(saver)

	// Events emitted after the server context is cancelled still have to
	// reach the store so offline parties catch up later.
	cancel()

	userID := uuid.New()
	require.NoError(t, hub.BroadcastToUser(userID, "negotiation:update", map[string]string{"status": "accepted"}))

	select {
	case saved := <-saver.calls:
		assert.Equal(t, userID, saved.userID)
		assert.Equal(t, "negotiation:update", saved.event)
		assert.True(t, saved.ctxAlive, "saver context must not inherit the cancellation")
	case <-time.After(time.Second):
		t.Fatal("notification was never persisted")
	}
}
