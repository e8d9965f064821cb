package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/gofiber/fiber/v2"

	"github.com/longevity-agent/server/internal/agent/graph"
	"github.com/longevity-agent/server/internal/agent/model"
	errx "github.com/longevity-agent/server/internal/core/error"
	logx "github.com/longevity-agent/server/pkg/logger"
)

// ChatAIRequest is the body of POST /chat_ai/agent. SubmissionID and QuoteIDs
// are accepted for client compatibility and not used by the agent.
type ChatAIRequest struct {
	UserQuery       string   `json:"user_query"`
	UserID          string   `json:"user_id"`
	SubmissionID    string   `json:"submission_id"`
	QuoteIDs        []string `json:"quote_ids"`
	SessionID       string   `json:"session_id"`
	EnableStreaming bool     `json:"enable_streaming"`
}

func (r ChatAIRequest) Validate() error {
	if strings.TrimSpace(r.UserQuery) == "" {
		return errx.Validation(errx.CodeUserQueryNotProvided, "Please provide a valid user query.")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errx.Validation(errx.CodeUserIDNotProvided, "Please provide a valid user id.")
	}
	return nil
}

type AgentHandler struct {
	runner graph.Runner
}

func NewAgentHandler(runner graph.Runner) *AgentHandler {
	return &AgentHandler{runner: runner}
}

func (h *AgentHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/chat_ai/agent", h.Chat)
}

func (h *AgentHandler) Chat(c *fiber.Ctx) error {
	var req ChatAIRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation(errx.CodeInvalidRequestBody, "Request body must be valid JSON.")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	in := model.QueryInput{
		UserInput:       req.UserQuery,
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		EnableStreaming: req.EnableStreaming,
	}

	if req.EnableStreaming {
		return h.stream(c, in)
	}

	res, err := h.runner.Invoke(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// stream waits for the first event before committing to text/event-stream, so a
// turn that fails outright is still answered with a JSON error.
func (h *AgentHandler) stream(c *fiber.Ctx, in model.QueryInput) error {
	sr, err := h.runner.Stream(c.UserContext(), in)
	if err != nil {
		return err
	}

	first, err := sr.Recv()
	if err != nil {
		sr.Close()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("stream ended without events")
		}
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Status(fiber.StatusOK)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sr.Close()
		writeEvents(w, first, sr)
	})
	return nil
}

func writeEvents(w *bufio.Writer, first model.ProgressEvent, sr *schema.StreamReader[model.ProgressEvent]) {
	ev := first
	for {
		if err := writeEvent(w, ev); err != nil {
			logx.Warn().Err(err).Msg("client disconnected from event stream")
			return
		}

		next, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			logx.Error().Err(err).Msg("event stream aborted")
			return
		}
		ev = next
	}
}

func writeEvent(w *bufio.Writer, ev model.ProgressEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	return w.Flush()
}
