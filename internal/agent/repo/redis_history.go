package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/longevity-agent/server/internal/agent/model"
	errx "github.com/longevity-agent/server/internal/core/error"
	logx "github.com/longevity-agent/server/pkg/logger"
)

type RedisHistoryRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisHistoryRepository(rdb redis.Cmdable, ttl time.Duration) *RedisHistoryRepository {
	return &RedisHistoryRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisHistoryRepository) historyKey(userID, sessionID string) string {
	return fmt.Sprintf("chat_history:%s:%s:messages", userID, sessionID)
}

func (r *RedisHistoryRepository) PersistMessage(ctx context.Context, req model.PersistRequest) (string, error) {
	entry := newEntry(req)

	b, err := json.Marshal(entry)
	if err != nil {
		logx.Error().Err(err).Str("session_id", entry.SessionID).Msg("failed to marshal history entry")
		return "", fmt.Errorf("marshal history entry: %w", err)
	}
	key := r.historyKey(entry.UserID, entry.SessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push history entry to redis")
		return "", errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return "", errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on history key")
		}
	}
	return entry.SessionID, nil
}

func (r *RedisHistoryRepository) FetchHistory(ctx context.Context, userID, sessionID string, limit int) (*model.ChatHistoryResult, error) {
	if sessionID == "" {
		return emptyResult(sessionID), nil
	}
	key := r.historyKey(userID, sessionID)

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	rows, err := r.rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return emptyResult(sessionID), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load chat history from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.HistoryEntry, 0, len(rows))
	for i, s := range rows {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal history entry")
			return nil, fmt.Errorf("unmarshal history entry at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	logx.Info().Str("session_id", sessionID).Int("count", len(entries)).Msg("fetch_chat_history: retrieved messages")
	return &model.ChatHistoryResult{SessionID: sessionID, Entries: entries, Count: len(entries)}, nil
}

func (r *RedisHistoryRepository) ClearHistory(ctx context.Context, userID, sessionID string) error {
	key := r.historyKey(userID, sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete chat history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// newEntry allocates the message id and, when missing, the session id.
func newEntry(req model.PersistRequest) model.HistoryEntry {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	toolUsed := req.ToolUsed
	if req.Role != model.RoleAssistant {
		toolUsed = model.RouteUnrouted
	}
	return model.HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		SessionID: sessionID,
		Role:      req.Role,
		ToolUsed:  toolUsed,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
}

func emptyResult(sessionID string) *model.ChatHistoryResult {
	return &model.ChatHistoryResult{SessionID: sessionID, Entries: []model.HistoryEntry{}, Count: 0}
}

var _ model.HistoryRepository = (*RedisHistoryRepository)(nil)
