package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRouteAlreadySet        = errors.New("route already set for this turn")
	ErrSessionAlreadyAssigned = errors.New("session id already assigned for this turn")
	ErrInvalidRoute           = errors.New("invalid route")
)

// Route is the classifier's chosen downstream handling strategy for a turn.
// The zero value RouteUnrouted means classification never produced a decision.
type Route string

const (
	RouteUnrouted         Route = ""
	RouteAgingBiomarker   Route = "aging_biomarker_tool"
	RouteClinicalTrial    Route = "longevity_clinical_trial_tool"
	RouteGeneralKnowledge Route = "general_knowledge"
	RouteRejected         Route = "rejection_handler"
)

// ParseRoute validates a raw decision string coming back from the router model.
func ParseRoute(s string) (Route, error) {
	r := Route(strings.TrimSpace(s))
	if !r.Valid() {
		return RouteUnrouted, fmt.Errorf("%w: %q", ErrInvalidRoute, s)
	}
	return r, nil
}

// Valid reports whether r is one of the four routable decisions.
func (r Route) Valid() bool {
	switch r {
	case RouteAgingBiomarker, RouteClinicalTrial, RouteGeneralKnowledge, RouteRejected:
		return true
	default:
		return false
	}
}

func (r Route) String() string {
	return string(r)
}

// ConversationState is the single record threaded through every graph node.
// Concurrency model:
//   - One instance per turn, built in the runner and never shared across requests.
//   - Nodes run strictly sequentially, so no mutex is required.
//   - Route and SessionID are write-once; go through SetRoute / AssignSession.
//   - Errors is append-only; use AddError.
type ConversationState struct {
	// input
	UserID          string
	UserInput       string
	SessionID       string
	EnableStreaming bool

	// output
	ChatHistory      string
	Route            Route
	RejectionMessage string
	FinalAnswer      string
	Errors           []string

	sessionAssigned bool
}

// NewConversationState builds a fresh per-turn state from the public input.
func NewConversationState(in QueryInput) *ConversationState {
	return &ConversationState{
		UserID:          in.UserID,
		UserInput:       in.UserInput,
		SessionID:       in.SessionID,
		EnableStreaming: in.EnableStreaming,
		sessionAssigned: in.SessionID != "",
		Errors:          []string{},
	}
}

// HasErrors reports whether the turn is already in a failed state.
func (s *ConversationState) HasErrors() bool {
	return len(s.Errors) > 0
}

// AddError appends a diagnostic; entries are never removed.
func (s *ConversationState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// SetRoute records the classifier decision. A second call fails.
func (s *ConversationState) SetRoute(r Route) error {
	if s.Route != RouteUnrouted {
		return fmt.Errorf("%w: have %s, got %s", ErrRouteAlreadySet, s.Route, r)
	}
	if !r.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoute, r)
	}
	s.Route = r
	return nil
}

// AssignSession records the session id allocated by the store. Re-assigning
// the same id is a no-op; a different id is rejected.
func (s *ConversationState) AssignSession(id string) error {
	if id == "" {
		return nil
	}
	if s.sessionAssigned {
		if id == s.SessionID {
			return nil
		}
		return fmt.Errorf("%w: have %s, got %s", ErrSessionAlreadyAssigned, s.SessionID, id)
	}
	s.SessionID = id
	s.sessionAssigned = true
	return nil
}

// Result converts the terminal state into the payload returned to callers.
func (s *ConversationState) Result() TurnResult {
	errs := make([]string, len(s.Errors))
	copy(errs, s.Errors)
	return TurnResult{
		Answer:    s.FinalAnswer,
		SessionID: s.SessionID,
		Errors:    errs,
	}
}

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	UserInput       string `json:"user_query"`
	UserID          string `json:"user_id"`
	SessionID       string `json:"session_id,omitempty"`
	EnableStreaming bool   `json:"enable_streaming,omitempty"`
}

// TurnResult is the blocking-mode response and the payload of the terminal progress event.
type TurnResult struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id"`
	Errors    []string `json:"error"`
}

// ProgressEvent is a unit of streamed output. Response is an empty object for
// intermediate steps and a TurnResult for the terminal "Done" step.
type ProgressEvent struct {
	CurrentStep string `json:"CurrentStep"`
	Response    any    `json:"Response"`
}

const StepDone = "Done"

// RouterOutput is the structured decision returned by the route classifier.
type RouterOutput struct {
	Decision         Route  `json:"decision"`
	Reasoning        string `json:"reasoning"`
	RejectionMessage string `json:"rejection_message,omitempty"`
	Error            string `json:"error,omitempty"`
}
