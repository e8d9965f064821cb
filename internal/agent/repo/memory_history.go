package repo

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/longevity-agent/server/internal/agent/model"
)

// MemoryHistoryRepository keeps history in process. Entries expire with the
// session after ttl of inactivity.
type MemoryHistoryRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemoryHistoryRepository(ttl time.Duration) *MemoryHistoryRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryHistoryRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *MemoryHistoryRepository) key(userID, sessionID string) string {
	return userID + ":" + sessionID
}

func (r *MemoryHistoryRepository) PersistMessage(ctx context.Context, req model.PersistRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entry := newEntry(req)
	key := r.key(entry.UserID, entry.SessionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []model.HistoryEntry
	if x, found := r.cache.Get(key); found {
		entries = x.([]model.HistoryEntry)
	}
	next := make([]model.HistoryEntry, len(entries), len(entries)+1)
	copy(next, entries)
	next = append(next, entry)
	r.cache.Set(key, next, cache.DefaultExpiration)

	return entry.SessionID, nil
}

func (r *MemoryHistoryRepository) FetchHistory(ctx context.Context, userID, sessionID string, limit int) (*model.ChatHistoryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return emptyResult(sessionID), nil
	}

	r.mu.Lock()
	x, found := r.cache.Get(r.key(userID, sessionID))
	r.mu.Unlock()
	if !found {
		return emptyResult(sessionID), nil
	}

	entries := x.([]model.HistoryEntry)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]model.HistoryEntry, len(entries))
	copy(out, entries)
	return &model.ChatHistoryResult{SessionID: sessionID, Entries: out, Count: len(out)}, nil
}

var _ model.HistoryRepository = (*MemoryHistoryRepository)(nil)
