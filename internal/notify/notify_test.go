package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftpit/draftpit/pkg/types"
)

func testPayload() Payload {
	now := time.Now()
	return Payload{
		Outcome:     "complete",
		SessionID:   "s1",
		HostID:      "p-a",
		CompletedAt: &now,
		State:       types.StateSnapshot{SessionID: "s1", Status: "complete"},
	}
}

func TestDeliverPostsOnce(t *testing.T) {
	var calls atomic.Int32
	var gotSig, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotSig = r.Header.Get(SignatureHeader)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(zap.NewNop())
	n.Deliver(context.Background(), Target{URL: srv.URL, Secret: "hush"}, testPayload())

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "application/json", gotContentType)

	mac := hmac.New(sha256.New, []byte("hush"))
	mac.Write(gotBody)
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)
}

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(zap.NewNop())
	n.Deliver(context.Background(), Target{URL: srv.URL}, testPayload())

	require.Equal(t, int32(3), calls.Load())
}

func TestDeliverGivesUpAfterFourAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(zap.NewNop())
	start := time.Now()
	n.Deliver(context.Background(), Target{URL: srv.URL}, testPayload())
	elapsed := time.Since(start)

	require.Equal(t, int32(4), calls.Load())
	// Backoff schedule between attempts: 250ms, 500ms, 1000ms.
	require.GreaterOrEqual(t, elapsed, 1750*time.Millisecond)
}

func TestDeliverWithoutTargetIsNoOp(t *testing.T) {
	n := New(zap.NewNop())
	n.Deliver(context.Background(), Target{}, testPayload())
}

func TestDeliverNoSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(zap.NewNop())
	n.Deliver(context.Background(), Target{URL: srv.URL}, testPayload())
	require.Empty(t, gotSig)
}

func TestDeliverStopsOnCancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	n := New(zap.NewNop())
	go func() {
		n.Deliver(ctx, Target{URL: srv.URL}, testPayload())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deliver did not stop after cancellation")
	}
	require.Less(t, calls.Load(), int32(4))
}
