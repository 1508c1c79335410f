// Command hookgen fabricates signed clip-moderation webhook deliveries and
// sends them to a receiver. It exists for load testing and for exercising
// the receiver's duplicate and bad-signature paths.
//
// Usage:
//
//	hookgen -url http://localhost:8080/webhook -secret abc -count 100
//	hookgen -secret abc -event clip.approved -replays 5
//	hookgen -secret abc -invalid
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var games = []string{"Elden Ring", "Valorant", "Apex Legends", "Fortnite", "Street Fighter 6"}

var rejectionReasons = []string{
	"Does not meet content guidelines",
	"Duplicate submission",
	"Poor video quality",
}

// payload is the wire envelope the receiver expects.
type payload struct {
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// generator fabricates signed test deliveries.
type generator struct {
	secret string
	rand   *rand.Rand
}

func newGenerator(secret string) *generator {
	return &generator{
		secret: secret,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// sign returns the hex HMAC-SHA256 of body under the shared secret.
func (g *generator) sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(g.secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// badSignature returns a random but plausible-looking signature.
func (g *generator) badSignature() string {
	buf := make([]byte, sha256.Size)
	g.rand.Read(buf)
	return hex.EncodeToString(buf)
}

// event fabricates a payload for the given event type. "mixed" picks one
// of the clip event types at random.
func (g *generator) event(eventType string) payload {
	if eventType == "mixed" {
		types := []string{"clip.submitted", "clip.approved", "clip.rejected"}
		eventType = types[g.rand.Intn(len(types))]
	}

	data := map[string]interface{}{
		"clip_id": uuid.New().String(),
		"user_id": uuid.New().String(),
	}
	switch eventType {
	case "clip.submitted":
		data["submission_id"] = uuid.New().String()
		data["title"] = fmt.Sprintf("Test Clip %d", g.rand.Intn(10000))
		data["game"] = games[g.rand.Intn(len(games))]
	case "clip.approved":
		data["approved_by"] = uuid.New().String()
		data["approved_at"] = time.Now().Format(time.RFC3339)
	case "clip.rejected":
		data["rejected_by"] = uuid.New().String()
		data["reason"] = rejectionReasons[g.rand.Intn(len(rejectionReasons))]
	}

	return payload{
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// send posts one delivery and returns the HTTP status and response body.
func send(client *http.Client, url string, body []byte, sig, event, deliveryID string, replay bool) (int, string, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", sig)
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Delivery-ID", deliveryID)
	if replay {
		req.Header.Set("X-Webhook-Replay", "true")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.String(), nil
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhook", "receiver webhook endpoint")
	secret := flag.String("secret", "", "shared webhook secret (required)")
	count := flag.Int("count", 1, "number of unique deliveries to send")
	eventType := flag.String("event", "mixed", "event type: clip.submitted, clip.approved, clip.rejected, or mixed")
	replays := flag.Int("replays", 0, "redeliver the last delivery this many times (same delivery id)")
	invalid := flag.Bool("invalid", false, "also send one delivery with a bad signature")
	interval := flag.Duration("interval", 0, "pause between deliveries")
	flag.Parse()

	if *secret == "" {
		log.Fatal("-secret is required")
	}

	g := newGenerator(*secret)
	client := &http.Client{Timeout: 10 * time.Second}

	var lastBody []byte
	var lastEvent, lastID string

	for i := 0; i < *count; i++ {
		ev := g.event(*eventType)
		body, err := json.Marshal(ev)
		if err != nil {
			log.Fatal(err)
		}
		deliveryID := uuid.New().String()

		status, respBody, err := send(client, *url, body, g.sign(body), ev.Event, deliveryID, false)
		if err != nil {
			log.Fatalf("delivery %d failed: %v", i+1, err)
		}
		log.Printf("delivery %d: %s %d %s", i+1, ev.Event, status, respBody)

		lastBody, lastEvent, lastID = body, ev.Event, deliveryID
		if *interval > 0 {
			time.Sleep(*interval)
		}
	}

	for i := 0; i < *replays; i++ {
		status, respBody, err := send(client, *url, lastBody, g.sign(lastBody), lastEvent, lastID, true)
		if err != nil {
			log.Fatalf("replay %d failed: %v", i+1, err)
		}
		log.Printf("replay %d: %d %s", i+1, status, respBody)
	}

	if *invalid {
		ev := g.event(*eventType)
		body, _ := json.Marshal(ev)
		status, respBody, err := send(client, *url, body, g.badSignature(), ev.Event, uuid.New().String(), false)
		if err != nil {
			log.Fatalf("invalid-signature delivery failed: %v", err)
		}
		log.Printf("invalid signature: %d %s (expect 401)", status, respBody)
	}
}
