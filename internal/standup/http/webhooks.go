package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/service"
	"github.com/aussiebroadwan/standup/pkg/httpx"
	"github.com/aussiebroadwan/standup/pkg/signx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

const (
	signatureHeader = "X-Slack-Signature"
	timestampHeader = "X-Slack-Request-Timestamp"

	// maxWebhookBody bounds how much of a delivery is read before signature
	// verification.
	maxWebhookBody = 1 << 20
)

// WebhookHandler serves the three platform delivery endpoints. Every request
// runs the same pipeline: read raw body, verify signature, transform, dedup
// and dispatch. The response is always a fast acknowledgment; processing
// outcomes never surface to the sender, only signature failures do.
type WebhookHandler struct {
	Verifier *signx.Verifier
	Ingest   *service.IngestService
}

// HandleEvents serves POST /v1/slack/events (JSON Events API deliveries).
func (h *WebhookHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readAndVerify(w, r)
	if !ok {
		return
	}

	// The URL-verification handshake echoes the challenge and carries no
	// event to process.
	var probe struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Type == "url_verification" {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"challenge": probe.Challenge})
		return
	}

	ev, err := service.TransformEventCallback(body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Unrecognized event payload.")
		return
	}

	h.ack(w, r, ev)
}

// HandleCommands serves POST /v1/slack/commands (form-encoded slash commands).
func (h *WebhookHandler) HandleCommands(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readAndVerify(w, r)
	if !ok {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Malformed form body.")
		return
	}

	ev, err := service.TransformSlashCommand(form)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Unrecognized command payload.")
		return
	}

	h.ack(w, r, ev)
}

// HandleInteractions serves POST /v1/slack/interactions (form-encoded with a
// JSON `payload` field).
func (h *WebhookHandler) HandleInteractions(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readAndVerify(w, r)
	if !ok {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Malformed form body.")
		return
	}

	ev, err := service.TransformInteraction([]byte(form.Get("payload")))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Unrecognized interaction payload.")
		return
	}

	h.ack(w, r, ev)
}

// readAndVerify reads the raw body and checks the delivery signature over it.
// The signature covers the exact bytes on the wire, so this must happen
// before any parsing. A false return means the response has been written.
func (h *WebhookHandler) readAndVerify(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Unreadable request body.")
		return nil, false
	}

	err = h.Verifier.Verify(r.Header.Get(signatureHeader), r.Header.Get(timestampHeader), body)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_signature", "Signature verification failed.")
		return nil, false
	}

	return body, true
}

// ack acknowledges the delivery and runs the pipeline. Slack treats a slow
// response as a failure and redelivers, so the acknowledgment never waits on
// processing outcomes; dispatch errors are logged and swallowed.
func (h *WebhookHandler) ack(w http.ResponseWriter, r *http.Request, ev domain.Event) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Ingest.Dispatch(ctx, ev); err != nil {
		log.Warn("webhook processing failed",
			"kind", string(ev.Kind),
			"external_id", ev.ExternalID,
			"err", err,
		)
	}

	w.WriteHeader(http.StatusOK)
}
