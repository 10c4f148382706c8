package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	controller "github.com/athleteai/drover/pkg/controller/http"
	"github.com/athleteai/drover/pkg/domain/model"
)

// recordingUC records push events handed over by the handler.
type recordingUC struct {
	mu     sync.Mutex
	events []*model.PushEvent
	err    error
}

func (uc *recordingUC) ProcessPush(ctx context.Context, event *model.PushEvent) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.events = append(uc.events, event)
	return uc.err
}

func (uc *recordingUC) count() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.events)
}

// generateSignature generates HMAC-SHA256 signature for testing
func generateSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func pushPayload(ref string) []byte {
	payload := map[string]interface{}{
		"ref":   ref,
		"after": "abc123def456",
		"repository": map[string]interface{}{
			"full_name": "athleteai/backend",
		},
		"pusher": map[string]interface{}{
			"name": "coach",
		},
	}
	data, _ := json.Marshal(payload)
	return data
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name           string
		payload        []byte
		signature      string
		wantStatusCode int
		wantProcessed  int
	}{
		{
			name:           "Valid signature",
			payload:        pushPayload("refs/heads/main"),
			signature:      "", // Will be generated
			wantStatusCode: http.StatusOK,
			wantProcessed:  1,
		},
		{
			name:           "Invalid signature",
			payload:        pushPayload("refs/heads/main"),
			signature:      "sha256=invalid",
			wantStatusCode: http.StatusUnauthorized,
			wantProcessed:  0,
		},
		{
			name:           "Missing signature",
			payload:        pushPayload("refs/heads/main"),
			signature:      "none",
			wantStatusCode: http.StatusUnauthorized,
			wantProcessed:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &recordingUC{}
			handler := controller.NewWebhookHandler(secret, uc)

			signature := tt.signature
			switch signature {
			case "":
				signature = generateSignature(secret, tt.payload)
			case "none":
				signature = ""
			}

			req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", "push")
			req.Header.Set("X-GitHub-Delivery", "test-delivery")
			req.Header.Set("X-Hub-Signature-256", signature)

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			if w.Code != tt.wantStatusCode {
				t.Errorf("Handle() status = %v, want %v, body = %s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if uc.count() != tt.wantProcessed {
				t.Errorf("processed events = %d, want %d", uc.count(), tt.wantProcessed)
			}
		})
	}
}

func TestWebhookHandler_PushEventExtraction(t *testing.T) {
	secret := "test-secret"
	uc := &recordingUC{}
	handler := controller.NewWebhookHandler(secret, uc)

	payload := pushPayload("refs/heads/main")
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", "delivery-42")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	handler.Handle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Handle() status = %v, body = %s", w.Code, w.Body.String())
	}
	if uc.count() != 1 {
		t.Fatalf("processed events = %d, want 1", uc.count())
	}

	event := uc.events[0]
	if event.DeliveryID != "delivery-42" {
		t.Errorf("DeliveryID = %q, want delivery-42", event.DeliveryID)
	}
	if event.Ref != "refs/heads/main" {
		t.Errorf("Ref = %q, want refs/heads/main", event.Ref)
	}
	if event.CommitSHA != "abc123def456" {
		t.Errorf("CommitSHA = %q, want abc123def456", event.CommitSHA)
	}
	if event.Repository != "athleteai/backend" {
		t.Errorf("Repository = %q, want athleteai/backend", event.Repository)
	}
	if event.Pusher != "coach" {
		t.Errorf("Pusher = %q, want coach", event.Pusher)
	}
}

func TestWebhookHandler_NonPushEventIgnored(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
	}{
		{name: "ping", eventType: string(model.EventTypePing)},
		{name: "issues", eventType: "issues"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := "test-secret"
			uc := &recordingUC{}
			handler := controller.NewWebhookHandler(secret, uc)

			payload := []byte(`{"zen":"Keep it logically awesome."}`)
			req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", tt.eventType)
			req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusOK)
			}
			if uc.count() != 0 {
				t.Errorf("%s event must not reach the use case, got %d calls", tt.eventType, uc.count())
			}

			var response map[string]string
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response["status"] != "ignored" {
				t.Errorf("Response status = %v, want ignored", response["status"])
			}
		})
	}
}

func TestWebhookHandler_UseCaseFailureIs500(t *testing.T) {
	secret := "test-secret"
	uc := &recordingUC{err: context.DeadlineExceeded}
	handler := controller.NewWebhookHandler(secret, uc)

	payload := pushPayload("refs/heads/main")
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	handler.Handle(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}

func TestWebhookHandler_Integration(t *testing.T) {
	ctx := context.Background()
	secret := "integration-test-secret"
	uc := &recordingUC{}

	server, err := controller.NewServer(
		ctx,
		uc,
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret(secret),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	payload := pushPayload("refs/heads/main")
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/hooks/github", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", "integration-test")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if uc.count() != 1 {
		t.Errorf("processed events = %d, want 1", uc.count())
	}
}
