package tests

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// INTEGRATION TEST SUITE
//
// These tests validate the receiver end-to-end:
//
//   Sender → HTTP API → Signature → Validation → Ledger → Dispatch
//
// The service must already be running with WEBHOOK_SECRET matching the
// suite, for example:
//
//   WEBHOOK_SECRET=test-secret go run ./cmd/api
//
// Optional environment overrides:
//
//   BASE_URL       default http://localhost:8080
//   WEBHOOK_SECRET default test-secret
//
////////////////////////////////////////////////////////////////////////////////

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func webhookSecret() string {
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		return v
	}
	return "test-secret"
}

// unique generates a unique delivery id so tests never collide with
// previous runs against the same server.
func unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// sign computes the X-Webhook-Signature value for a body.
func sign(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

////////////////////////////////////////////////////////////////////////////////
// SERVICE READINESS HELPER
////////////////////////////////////////////////////////////////////////////////

// waitReady polls /health until the server responds.
func waitReady(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(30 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL() + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(300 * time.Millisecond)
	}

	t.Fatalf("service not ready after 30s")
}

////////////////////////////////////////////////////////////////////////////////
// GENERIC HTTP HELPERS
////////////////////////////////////////////////////////////////////////////////

// postWebhook delivers a body with the given headers; empty values omit
// the header entirely.
func postWebhook(t *testing.T, body []byte, sig, event, deliveryID string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest("POST", baseURL()+"/webhook", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("X-Webhook-Signature", sig)
	}
	if event != "" {
		req.Header.Set("X-Webhook-Event", event)
	}
	if deliveryID != "" {
		req.Header.Set("X-Webhook-Delivery-ID", deliveryID)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, respBody
}

func clipApprovedBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event":     "clip.approved",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data": map[string]interface{}{
			"clip_id":     unique("clip"),
			"approved_by": unique("mod"),
		},
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func status(t *testing.T, respBody []byte) string {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		t.Fatalf("decode response %q: %v", respBody, err)
	}
	s, _ := resp["status"].(string)
	return s
}

////////////////////////////////////////////////////////////////////////////////
// SCENARIOS
////////////////////////////////////////////////////////////////////////////////

func TestDeliveryAndRedelivery(t *testing.T) {
	waitReady(t)

	body := clipApprovedBody(t)
	sig := sign(body, webhookSecret())
	deliveryID := unique("delivery")

	code, respBody := postWebhook(t, body, sig, "clip.approved", deliveryID)
	if code != http.StatusOK {
		t.Fatalf("first delivery: got %d %s, want 200", code, respBody)
	}
	if s := status(t, respBody); s != "success" {
		t.Fatalf("first delivery status %q, want success", s)
	}

	// At-least-once redelivery of the same id must short-circuit.
	code, respBody = postWebhook(t, body, sig, "clip.approved", deliveryID)
	if code != http.StatusOK {
		t.Fatalf("redelivery: got %d %s, want 200", code, respBody)
	}
	if s := status(t, respBody); s != "already_processed" {
		t.Fatalf("redelivery status %q, want already_processed", s)
	}
}

func TestMissingHeaders(t *testing.T) {
	waitReady(t)

	body := clipApprovedBody(t)
	code, respBody := postWebhook(t, body, "", "clip.approved", unique("delivery"))
	if code != http.StatusBadRequest {
		t.Fatalf("got %d %s, want 400", code, respBody)
	}
	if !bytes.Contains(respBody, []byte("missing required headers")) {
		t.Fatalf("error should name the missing headers, got %s", respBody)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	waitReady(t)

	body := clipApprovedBody(t)
	sig := sign(body, webhookSecret()+"-wrong")

	code, respBody := postWebhook(t, body, sig, "clip.approved", unique("delivery"))
	if code != http.StatusUnauthorized {
		t.Fatalf("got %d %s, want 401", code, respBody)
	}
}

func TestSignedMalformedBody(t *testing.T) {
	waitReady(t)

	body := []byte(`{"event": oops`)
	sig := sign(body, webhookSecret())

	code, respBody := postWebhook(t, body, sig, "clip.approved", unique("delivery"))
	if code != http.StatusBadRequest {
		t.Fatalf("got %d %s, want 400 (never 401: signature was valid)", code, respBody)
	}
}

func TestHealthReportsLedger(t *testing.T) {
	waitReady(t)

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Get(baseURL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d %s, want 200", resp.StatusCode, respBody)
	}
	if !bytes.Contains(respBody, []byte("ledger_size")) {
		t.Fatalf("health should report ledger_size, got %s", respBody)
	}
}
