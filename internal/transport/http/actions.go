package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvirla/calendar-agent-backend/internal/app"
	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

// The routing/auth layer in front of this service resolves the user; it
// hands the owner id down in this header.
const ownerHeader = "X-User-ID"

// ActionProposer is the minimal interface needed to propose an action.
type ActionProposer interface {
	Propose(ctx context.Context, in app.ProposeEventInput) (app.ProposeEventResult, error)
}

// ActionLister is the minimal interface needed to list pending actions.
type ActionLister interface {
	ListPending(ctx context.Context, ownerID string) ([]domain.PendingAction, error)
}

// ActionResolver is the minimal interface needed to approve or reject.
type ActionResolver interface {
	Approve(ctx context.Context, ownerID, actionID string) (app.ApproveResult, error)
	Reject(ctx context.Context, ownerID, actionID string) (app.RejectResult, error)
}

// HandleActions serves GET /actions (list pending) and POST /actions
// (propose).
func HandleActions(proposer ActionProposer, lister ActionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listActions(w, r, lister)
		case http.MethodPost:
			proposeAction(w, r, proposer)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		}
	}
}

type proposeRequest struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	Location    string `json:"location"`
	TTLMinutes  *int   `json:"ttl_minutes"`
}

type proposeResponse struct {
	ActionID         string    `json:"action_id"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	RequiresApproval bool      `json:"requires_approval"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func proposeAction(w http.ResponseWriter, r *http.Request, svc ActionProposer) {
	ownerID := r.Header.Get(ownerHeader)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, codeOwnerRequired, "missing "+ownerHeader+" header")
		return
	}

	var req proposeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	in := app.ProposeEventInput{
		OwnerID:     ownerID,
		Title:       req.Title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.TTLMinutes != nil {
		ttl := time.Duration(*req.TTLMinutes) * time.Minute
		in.TTL = &ttl
	}

	res, err := svc.Propose(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(proposeResponse{
		ActionID:         res.ActionID,
		Status:           "pending_approval",
		Message:          res.Message,
		RequiresApproval: true,
		ExpiresAt:        res.ExpiresAt,
	})
}

type pendingActionResponse struct {
	ActionID    string    `json:"action_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type listActionsResponse struct {
	PendingActions []pendingActionResponse `json:"pending_actions"`
}

func listActions(w http.ResponseWriter, r *http.Request, svc ActionLister) {
	ownerID := r.Header.Get(ownerHeader)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, codeOwnerRequired, "missing "+ownerHeader+" header")
		return
	}

	actions, err := svc.ListPending(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := listActionsResponse{PendingActions: make([]pendingActionResponse, 0, len(actions))}
	for _, a := range actions {
		resp.PendingActions = append(resp.PendingActions, pendingActionResponse{
			ActionID:    a.ActionID,
			Type:        string(a.Type),
			Description: a.Description,
			CreatedAt:   a.CreatedAt,
			ExpiresAt:   a.ExpiresAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type resolveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"event_id,omitempty"`
}

// HandleResolveAction serves POST /actions/{id}/approve and
// POST /actions/{id}/reject.
func HandleResolveAction(svc ActionResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		actionID, verb, ok := parseResolvePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		ownerID := r.Header.Get(ownerHeader)
		if ownerID == "" {
			writeError(w, http.StatusBadRequest, codeOwnerRequired, "missing "+ownerHeader+" header")
			return
		}

		switch verb {
		case "approve":
			res, err := svc.Approve(r.Context(), ownerID, actionID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resolveResponse{Success: true, Message: res.Message, EventID: res.EventID})
		case "reject":
			res, err := svc.Reject(r.Context(), ownerID, actionID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resolveResponse{Success: true, Message: res.Message})
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func parseResolvePath(path string) (actionID, verb string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "actions" || parts[1] == "" {
		return "", "", false
	}
	if parts[2] != "approve" && parts[2] != "reject" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// writeServiceError maps lifecycle errors onto statuses. Upstream calendar
// trouble is a bad gateway from this service's point of view; the code tells
// the client whether re-auth would help.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOwnerRequired):
		writeError(w, http.StatusBadRequest, codeOwnerRequired, err.Error())
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, codeTitleRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, codeInvalidInterval, err.Error())
	case errors.Is(err, domain.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, codeInvalidDuration, err.Error())
	case errors.Is(err, domain.ErrActionNotFound):
		writeError(w, http.StatusNotFound, codeActionNotFound, err.Error())
	case errors.Is(err, domain.ErrUnsupportedAction):
		writeError(w, http.StatusConflict, codeUnsupportedAction, err.Error())
	case errors.Is(err, domain.ErrGatewayUnauthorized):
		writeError(w, http.StatusBadGateway, codeGatewayAuth, domain.ErrGatewayUnauthorized.Error())
	case errors.Is(err, domain.ErrGatewayUnavailable):
		writeError(w, http.StatusBadGateway, codeGatewayUnavailable, domain.ErrGatewayUnavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
