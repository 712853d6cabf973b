package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"shutterdesk/internal/config"
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                   "test",
		StoreDriver:           config.StoreSQLite,
		SQLitePath:            filepath.Join(t.TempDir(), "shutterdesk.db"),
		RedisURL:              redisURL,
		AdminInboxID:          "admin",
		CountsCacheTTLSeconds: 30,
		MediaUploadDir:        t.TempDir(),
	}
}

func TestInitRuntimeSQLite(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t, mr.Addr())
	ctx := context.Background()

	rt, err := InitRuntime(ctx, cfg)
	require.NoError(t, err)
	defer rt.Close(ctx)

	require.NotNil(t, rt.DB)
	require.NotNil(t, rt.Redis)
	assert.Nil(t, rt.Mongo)
	assert.NoError(t, rt.PingStore(ctx))

	photographer := moderation.Actor{ID: "ph-1", Name: "Ana", Role: models.RolePhotographer}
	item, err := rt.Engine.Submit(ctx, moderation.SubmitInput{
		Kind:      models.KindCity,
		Payload:   models.Payload{Name: "Lisbon", Image: "https://cdn.example.com/lisbon.jpg"},
		Submitter: photographer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)

	unread, err := rt.Emitter.ListUnread(ctx, models.AdminInbox("admin"), 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, item.ID, unread[0].RelatedItemID)

	counts, err := rt.Engine.Counts(ctx, models.KindCity)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Pending)
	assert.True(t, mr.Exists("counts:content:city"))
}

func TestInitRuntimeWithoutRedis(t *testing.T) {
	cfg := sqliteConfig(t, "127.0.0.1:1")
	ctx := context.Background()

	rt, err := InitRuntime(ctx, cfg)
	require.NoError(t, err)
	defer rt.Close(ctx)

	assert.Nil(t, rt.Redis)
	counts, err := rt.Engine.Counts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.ContentCounts{}, counts)
}

func TestPingStoreWithoutBackend(t *testing.T) {
	rt := &Runtime{}
	assert.Error(t, rt.PingStore(context.Background()))
}
