package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrbench/refbox/internal/adapters/normalize"
	"github.com/vrbench/refbox/internal/domain/scoring"
	"github.com/vrbench/refbox/internal/domain/session"
)

// SubmitHandler handles answer submissions.
type SubmitHandler struct {
	deps Dependencies
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// submitRequest is the body of POST /api/submit. The answer payload mirrors
// the client submission format.
type submitRequest struct {
	QuestionID   int    `json:"question_id"`
	SubmissionID string `json:"submission_id,omitempty"`
	normalize.Payload
}

// submitResponse is the body returned for a scored submission.
type submitResponse struct {
	Success       bool               `json:"success"`
	Correctness   string             `json:"correctness"`
	Score         float64            `json:"score"`
	WrongAttempts int                `json:"wrong_attempts"`
	Message       string             `json:"message,omitempty"`
	Duplicate     bool               `json:"duplicate,omitempty"`
	Detail        *scoring.Breakdown `json:"detail,omitempty"`
}

// notActiveDetail carries timing diagnostics for rejected submissions.
type notActiveDetail struct {
	QuestionID int     `json:"question_id"`
	Elapsed    float64 `json:"elapsed_time"`
	TimeLimit  float64 `json:"time_limit"`
	BufferTime float64 `json:"buffer_time"`
}

// HandleSubmit handles POST /api/submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.QuestionID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("missing question_id")))
		return
	}

	teamID, teamName, ok := h.deps.ResolveTeam(teamToken(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown_token", wrapKind(op, ErrUnauthorized, nil))
		return
	}

	// Idempotency check, marked as seen first so retries of the same
	// submission never get scored twice.
	key := idempotencyKey(r, req.SubmissionID)
	if key != "" && h.deps.SeenAndRecord(r.Context(), key) {
		writeJSON(w, http.StatusOK, submitResponse{
			Success:     false,
			Correctness: "duplicate",
			Duplicate:   true,
			Message:     "duplicate submission ignored",
		})
		return
	}

	view, err := h.deps.Submit(r.Context(), teamID, teamName, req.QuestionID, req.Payload)
	if err != nil {
		// Rollback the "seen" status since this submission was never scored.
		if key != "" {
			h.deps.Unrecord(r.Context(), key)
		}
		h.writeSubmitError(w, op, err)
		return
	}

	out := view.Outcome
	if out.Status == session.StatusAlreadyCompleted {
		writeJSON(w, http.StatusOK, submitResponse{
			Success:     true,
			Correctness: "already_completed",
			Score:       out.FinalScore,
			Message:     "answer already accepted, score is frozen",
		})
		return
	}

	bd := out.Breakdown
	writeJSON(w, http.StatusOK, submitResponse{
		Success:       out.Correct,
		Correctness:   view.Verdict,
		Score:         bd.Score,
		WrongAttempts: out.WrongCount,
		Message:       bd.Message,
		Detail:        &bd,
	})
}

// writeSubmitError maps submission pipeline errors to HTTP responses.
func (h *SubmitHandler) writeSubmitError(w http.ResponseWriter, op string, err error) {
	var notActive *session.NotActiveError
	switch {
	case errors.As(err, &notActive):
		writeErrorDetail(w, http.StatusBadRequest, "session_not_active", err, notActiveDetail{
			QuestionID: notActive.QuestionID,
			Elapsed:    notActive.Elapsed,
			TimeLimit:  notActive.TimeLimit,
			BufferTime: notActive.BufferTime,
		})
	case errors.Is(err, session.ErrUnknownQuestion):
		writeError(w, http.StatusNotFound, "unknown_question", err)
	case errors.Is(err, normalize.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "invalid_payload", wrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// teamToken extracts the team session token from the query string or header.
func teamToken(r *http.Request) string {
	if token := r.URL.Query().Get("session"); token != "" {
		return token
	}
	return r.Header.Get("X-Team-Session")
}

// idempotencyKey prefers the Idempotency-Key header over the body field.
func idempotencyKey(r *http.Request, submissionID string) string {
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return submissionID
}
