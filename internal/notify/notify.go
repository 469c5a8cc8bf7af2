// Package notify delivers the one completion or cancellation payload a
// session owes its external orchestrator.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/draftpit/draftpit/pkg/types"
)

const (
	maxAttempts = 4
	baseBackoff = 250 * time.Millisecond
	maxBackoff  = 1500 * time.Millisecond

	// SignatureHeader carries a hex HMAC-SHA256 of the request body,
	// keyed with the session's shared secret.
	SignatureHeader = "X-Draft-Signature"
)

type Target struct {
	URL    string
	Secret string
}

type Payload struct {
	Outcome     string              `json:"outcome"` // "complete" | "cancelled"
	SessionID   string              `json:"sessionId"`
	HostID      string              `json:"hostId,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	CancelledAt *time.Time          `json:"cancelledAt,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	State       types.StateSnapshot `json:"state"`
}

type Notifier struct {
	client *http.Client
	log    *zap.Logger
}

func New(log *zap.Logger) *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

// Deliver posts the payload, retrying with exponential backoff on any
// transport failure or non-2xx response. Exhausted failures are logged
// and dropped; callers never learn about them.
func (n *Notifier) Deliver(ctx context.Context, t Target, p Payload) {
	if t.URL == "" {
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		n.log.Error("encode outcome payload",
			zap.String("session_id", p.SessionID), zap.Error(err))
		return
	}

	backoff := baseBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}
		if lastErr = n.post(ctx, t, body); lastErr == nil {
			return
		}
	}
	n.log.Error("outcome notification failed, giving up",
		zap.String("session_id", p.SessionID),
		zap.String("url", t.URL),
		zap.Int("attempts", maxAttempts),
		zap.Error(lastErr))
}

func (n *Notifier) post(ctx context.Context, t Target, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.Secret != "" {
		req.Header.Set(SignatureHeader, sign(t.Secret, body))
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
