package conversations

import (
	"context"
	"fmt"
	"strings"

	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

// HistoryManager sits between the graph nodes and the history repository.
type HistoryManager struct {
	historyRepo model.HistoryRepository
	limit       int
}

func NewHistoryManager(historyRepo model.HistoryRepository, config model.HistoryConfig) *HistoryManager {
	limit := config.Limit
	if limit <= 0 {
		limit = 10
	}
	return &HistoryManager{
		historyRepo: historyRepo,
		limit:       limit,
	}
}

// LoadContext fetches the most recent entries of a session and compacts them for
// the router prompt. An empty sessionID yields an empty context.
func (hm *HistoryManager) LoadContext(ctx context.Context, userID, sessionID string) (string, error) {
	if sessionID == "" {
		logx.Info().Str("user_id", userID).Msg("fetch_chat_history: no session_id provided, returning empty history")
		return "", nil
	}

	res, err := hm.historyRepo.FetchHistory(ctx, userID, sessionID, hm.limit)
	if err != nil {
		return "", fmt.Errorf("fetch chat history: %w", err)
	}
	if res == nil || len(res.Entries) == 0 {
		logx.Info().Str("session_id", sessionID).Msg("no chat history found")
		return "", nil
	}

	entries := trimTail(res.Entries, hm.limit)
	logx.Debug().Str("session_id", sessionID).Int("count", len(entries)).Msg("chat history loaded")
	return CompactHistory(entries), nil
}

// SaveMessage persists one message and returns the session id it was stored under.
// ToolUsed is dropped for user messages.
func (hm *HistoryManager) SaveMessage(ctx context.Context, req model.PersistRequest) (string, error) {
	if req.Role != model.RoleAssistant {
		req.ToolUsed = model.RouteUnrouted
	}
	sessionID, err := hm.historyRepo.PersistMessage(ctx, req)
	if err != nil {
		return "", fmt.Errorf("persist %s message: %w", req.Role, err)
	}
	logx.Info().Str("session_id", sessionID).Str("role", string(req.Role)).Msg("Chat history saved")
	return sessionID, nil
}

// CompactHistory renders entries one per line as "role: message" or
// "role (tool_used: X): message". Unknown roles and empty messages are skipped.
func CompactHistory(entries []model.HistoryEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Role != model.RoleUser && e.Role != model.RoleAssistant {
			continue
		}
		if e.Message == "" {
			continue
		}
		if e.ToolUsed != model.RouteUnrouted {
			lines = append(lines, fmt.Sprintf("%s (tool_used: %s): %s", e.Role, e.ToolUsed, e.Message))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", e.Role, e.Message))
	}
	return strings.Join(lines, "\n")
}

// ====================== Helper function ======================
func trimTail(entries []model.HistoryEntry, max int) []model.HistoryEntry {
	if len(entries) <= max {
		result := make([]model.HistoryEntry, len(entries))
		copy(result, entries)
		return result
	}
	source := entries[len(entries)-max:]
	result := make([]model.HistoryEntry, len(source))
	copy(result, source)
	return result
}
