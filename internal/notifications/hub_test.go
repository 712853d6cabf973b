package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestHubRoutesPublishesToInbox(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	notifier := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, notifier))

	ana, err := hub.Register("ph-1", nil)
	require.NoError(t, err)
	ben, err := hub.Register("ph-2", nil)
	require.NoError(t, err)

	require.NoError(t, notifier.PublishUser(ctx, "ph-1", `{"type":"approved"}`))
	assert.JSONEq(t, `{"type":"approved"}`, receive(t, ana))

	select {
	case msg := <-ben.Send:
		t.Fatalf("ph-2 received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRegisterLimitsAndUnregister(t *testing.T) {
	hub := NewHub()
	clients := make([]*Client, 0, maxConnsPerInbox)
	for i := 0; i < maxConnsPerInbox; i++ {
		c, err := hub.Register("admin-inbox:admin", nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}
	_, err := hub.Register("admin-inbox:admin", nil)
	assert.ErrorIs(t, err, ErrInboxFull)
	assert.Equal(t, maxConnsPerInbox, hub.Connected("admin-inbox:admin"))

	hub.Unregister(clients[0])
	hub.Unregister(clients[0])
	assert.Equal(t, maxConnsPerInbox-1, hub.Connected("admin-inbox:admin"))
	_, open := <-clients[0].Send
	assert.False(t, open)

	hub.Broadcast("admin-inbox:admin", "ping")
	assert.Equal(t, "ping", receive(t, clients[1]))

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Connected("admin-inbox:admin"))
	hub.Unregister(clients[1])
}

func TestTrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("ph-1", nil)
	require.NoError(t, err)
	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestRecipientFromChannel(t *testing.T) {
	id, ok := RecipientFromChannel(UserChannel("ph-9"))
	assert.True(t, ok)
	assert.Equal(t, "ph-9", id)

	_, ok = RecipientFromChannel("chat:conv:1")
	assert.False(t, ok)
	_, ok = RecipientFromChannel(UserChannel(""))
	assert.False(t, ok)
}

func TestStartWiringWithoutRedis(t *testing.T) {
	assert.NoError(t, NewHub().StartWiring(context.Background(), NewNotifier(nil)))
}
