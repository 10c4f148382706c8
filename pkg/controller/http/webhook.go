package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/athleteai/drover/pkg/domain/interfaces"
	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	webhookUC interfaces.WebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, webhookUC interfaces.WebhookUseCase) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		webhookUC: webhookUC,
	}
}

// Handle processes webhook requests. Only push events reach the use case;
// everything else is acknowledged and ignored. The response reports the
// outcome of the run the push triggered, so a failed deployment surfaces as
// a 500 on the delivery.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Read payload
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, r, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature
	signature := r.Header.Get("X-Hub-Signature-256")
	if !h.verifySignature(body, signature) {
		logger.Warn("Invalid webhook signature")
		writeError(w, r, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	switch eventType := model.WebhookEventType(r.Header.Get("X-GitHub-Event")); eventType {
	case model.EventTypePush:
		// Handled below.
	case model.EventTypePing:
		logger.Info("Acknowledging webhook ping")
		writeIgnored(w, "ping acknowledged")
		return
	default:
		logger.Info("Ignoring non-push event", "event_type", eventType)
		writeIgnored(w, "unsupported event type")
		return
	}

	// Parse event using GitHub SDK
	payload, err := github.ParseWebHook(string(model.EventTypePush), body)
	if err != nil {
		logger.Error("Failed to parse webhook payload", "error", err)
		writeError(w, r, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	pushEvent, ok := payload.(*github.PushEvent)
	if !ok {
		writeError(w, r, goerr.New("unexpected payload type for push event"), http.StatusBadRequest)
		return
	}

	event := &model.PushEvent{
		DeliveryID: r.Header.Get("X-GitHub-Delivery"),
		Ref:        pushEvent.GetRef(),
		CommitSHA:  pushEvent.GetAfter(),
		Repository: pushEvent.GetRepo().GetFullName(),
		Pusher:     pushEvent.GetPusher().GetName(),
		ReceivedAt: time.Now(),
	}

	// Process event via UseCase
	if err := h.webhookUC.ProcessPush(ctx, event); err != nil {
		logger.Error("Failed to process push event", "error", err)
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	// Success response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
	}); err != nil {
		logger.Error("Failed to encode success response", "error", err)
	}
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	// Calculate HMAC-SHA256
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

// writeIgnored acknowledges a delivery that triggered no run.
func writeIgnored(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ignored",
		"reason": reason,
	})
}
