package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/service"
	"github.com/aussiebroadwan/standup/pkg/httpx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// SubmissionsHandler serves the token-gated response surface. The bearer
// token is the whole credential: no session, no login. Every token failure
// is the same 401 regardless of cause.
type SubmissionsHandler struct {
	TokenService  *service.TokenService
	AnswerService *service.AnswerService
}

// SubmissionView is the metadata a respondent needs to render their form.
type SubmissionView struct {
	TargetDate       string   `json:"target_date"`
	Questions        []string `json:"questions"`
	Deadline         string   `json:"deadline"`
	AlreadySubmitted bool     `json:"already_submitted"`
}

// SubmitRequest is the POST body: the token plus the full answer set.
type SubmitRequest struct {
	Token   string `json:"token"`
	Answers []struct {
		QuestionIndex int    `json:"question_index"`
		Text          string `json:"text"`
	} `json:"answers"`
}

// SubmitResponse acknowledges a recorded submission.
type SubmitResponse struct {
	AnswerCount int `json:"answer_count"`
}

// HandleGet serves GET /v1/submissions?token=… with the instance metadata
// needed to display the response form.
func (h *SubmissionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Validate the token; this is the only authentication.
	claims, err := h.TokenService.Validate(ctx, r.URL.Query().Get("token"))
	if err != nil {
		writeInvalidToken(w)
		return
	}

	// 2. Load the instance the token points at. Validate already confirmed
	// it exists; a miss here is a server-side inconsistency.
	inst, err := h.TokenService.Store.Instances().GetInstance(ctx, claims.InstanceID, claims.OrgID)
	if err != nil {
		log.Error("submission metadata fetch failed", "instance_id", claims.InstanceID, "err", err)
		writeServerError(w)
		return
	}

	// 3. Tell a repeat visitor up front that their response is on record.
	submitted, err := h.TokenService.HasExistingResponses(ctx, claims.InstanceID, claims.MemberID)
	if err != nil {
		log.Error("submission status check failed", "instance_id", claims.InstanceID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, SubmissionView{
		TargetDate:       inst.TargetDate,
		Questions:        inst.Snapshot.Questions,
		Deadline:         inst.Deadline().UTC().Format(time.RFC3339),
		AlreadySubmitted: submitted,
	})
}

// HandlePost serves POST /v1/submissions, recording a member's full answer
// set in one shot.
func (h *SubmissionsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Decode the body.
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Malformed JSON body.")
		return
	}

	// 2. Validate the token.
	claims, err := h.TokenService.Validate(ctx, req.Token)
	if err != nil {
		writeInvalidToken(w)
		return
	}

	// 3. Record the batch.
	answers := make([]service.AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, service.AnswerInput{
			QuestionIndex: a.QuestionIndex,
			Text:          a.Text,
		})
	}

	count, err := h.AnswerService.SubmitFullResponse(ctx, claims.InstanceID, claims.MemberID, claims.OrgID, answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			httpx.WriteError(w, http.StatusConflict,
				"already_submitted", "A response for this standup is already on record.")
		case errors.Is(err, service.ErrWindowClosed):
			httpx.WriteError(w, http.StatusConflict,
				"window_closed", "The response window for this standup has closed.")
		case errors.Is(err, service.ErrBadQuestionIndex):
			httpx.WriteError(w, http.StatusBadRequest,
				"bad_question_index", "An answer references a question that does not exist.")
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "The submission is empty or malformed.")
		case errors.Is(err, service.ErrNotFound):
			// The instance disappeared between validation and submission.
			writeInvalidToken(w)
		default:
			log.Error("submission failed", "instance_id", claims.InstanceID, "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, SubmitResponse{AnswerCount: count})
}

func writeInvalidToken(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized,
		"invalid_token", "The submission link is invalid or no longer active.")
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError,
		"server_error", "An internal error occurred.")
}
