package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longevity-agent/server/internal/agent/model"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisHistoryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisHistoryRepository(rdb, ttl), mr
}

func repos(t *testing.T) map[string]model.HistoryRepository {
	redisRepo, _ := newRedisRepo(t, time.Hour)
	return map[string]model.HistoryRepository{
		"redis":  redisRepo,
		"memory": NewMemoryHistoryRepository(time.Hour),
	}
}

func TestPersistAllocatesSessionOnce(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sid, err := r.PersistMessage(ctx, model.PersistRequest{UserID: "u1", Role: model.RoleUser, Message: "What is NAD+?"})
			require.NoError(t, err)
			require.NotEmpty(t, sid)

			sid2, err := r.PersistMessage(ctx, model.PersistRequest{
				UserID: "u1", SessionID: sid, Role: model.RoleAssistant,
				Message: "Detailed response", ToolUsed: model.RouteAgingBiomarker,
			})
			require.NoError(t, err)
			assert.Equal(t, sid, sid2)

			res, err := r.FetchHistory(ctx, "u1", sid, 10)
			require.NoError(t, err)
			require.Equal(t, 2, res.Count)
			assert.Equal(t, model.RoleUser, res.Entries[0].Role)
			assert.Equal(t, model.RouteUnrouted, res.Entries[0].ToolUsed)
			assert.Equal(t, model.RoleAssistant, res.Entries[1].Role)
			assert.Equal(t, model.RouteAgingBiomarker, res.Entries[1].ToolUsed)
			assert.NotEqual(t, res.Entries[0].ID, res.Entries[1].ID)
		})
	}
}

func TestUserEntryNeverCarriesTool(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sid, err := r.PersistMessage(ctx, model.PersistRequest{
				UserID: "u1", Role: model.RoleUser, Message: "hi", ToolUsed: model.RouteClinicalTrial,
			})
			require.NoError(t, err)

			res, err := r.FetchHistory(ctx, "u1", sid, 10)
			require.NoError(t, err)
			require.Len(t, res.Entries, 1)
			assert.Equal(t, model.RouteUnrouted, res.Entries[0].ToolUsed)
		})
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sid := "session-1"
			for i := 0; i < 5; i++ {
				_, err := r.PersistMessage(ctx, model.PersistRequest{UserID: "u1", SessionID: sid, Role: model.RoleUser, Message: fmt.Sprintf("m%d", i)})
				require.NoError(t, err)
			}

			res, err := r.FetchHistory(ctx, "u1", sid, 3)
			require.NoError(t, err)
			require.Equal(t, 3, res.Count)
			assert.Equal(t, "m2", res.Entries[0].Message)
			assert.Equal(t, "m4", res.Entries[2].Message)
		})
	}
}

func TestFetchEmptySessionOrUnknown(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			res, err := r.FetchHistory(context.Background(), "u1", "", 10)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Count)
			assert.Empty(t, res.Entries)

			res, err = r.FetchHistory(context.Background(), "u1", "missing", 10)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Count)
		})
	}
}

func TestSessionsAreScopedByUser(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := r.PersistMessage(ctx, model.PersistRequest{UserID: "u1", SessionID: "s", Role: model.RoleUser, Message: "mine"})
			require.NoError(t, err)

			res, err := r.FetchHistory(ctx, "u2", "s", 10)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Count)
		})
	}
}

func TestRedisPersistSetsTTL(t *testing.T) {
	r, mr := newRedisRepo(t, time.Hour)

	sid, err := r.PersistMessage(context.Background(), model.PersistRequest{UserID: "u1", Role: model.RoleUser, Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, time.Hour, mr.TTL(r.historyKey("u1", sid)))
}

func TestRedisClearHistory(t *testing.T) {
	r, mr := newRedisRepo(t, 0)
	ctx := context.Background()

	sid, err := r.PersistMessage(ctx, model.PersistRequest{UserID: "u1", Role: model.RoleUser, Message: "hi"})
	require.NoError(t, err)
	require.True(t, mr.Exists(r.historyKey("u1", sid)))

	require.NoError(t, r.ClearHistory(ctx, "u1", sid))
	assert.False(t, mr.Exists(r.historyKey("u1", sid)))
}

func TestRedisFetchCorruptEntry(t *testing.T) {
	r, mr := newRedisRepo(t, 0)
	_, err := mr.Push(r.historyKey("u1", "s1"), "{not json")
	require.NoError(t, err)

	_, err = r.FetchHistory(context.Background(), "u1", "s1", 10)
	assert.Error(t, err)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newRedisRepo(t, 0)
	mr.Close()

	_, err := r.PersistMessage(context.Background(), model.PersistRequest{UserID: "u1", Role: model.RoleUser, Message: "hi"})
	assert.Error(t, err)
}
