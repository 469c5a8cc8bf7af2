package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftpit/draftpit/internal/hub"
	"github.com/draftpit/draftpit/internal/notify"
	"github.com/draftpit/draftpit/internal/session"
	"github.com/draftpit/draftpit/internal/store"
	"github.com/draftpit/draftpit/pkg/types"
)

type noopNotifier struct{}

func (noopNotifier) Deliver(context.Context, notify.Target, notify.Payload) {}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.New(ctx, session.Deps{
		Store:    store.NewMemory(),
		Notifier: noopNotifier{},
		Log:      zap.NewNop(),
	})
	srv := httptest.NewServer(SetupRoutes(h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func createRequest(id string) types.CreateSessionRequest {
	pool := make([]string, 40)
	for i := range pool {
		pool[i] = fmt.Sprintf("item-%02d", i)
	}
	return types.CreateSessionRequest{
		SessionID: id,
		HostID:    "p-a",
		FormatID:  "teams2",
		Seats: []types.Seat{
			{ParticipantID: "p-a", Name: "Alpha", Team: 0},
			{ParticipantID: "p-b", Name: "Bravo", Team: 1},
		},
		Pool: pool,
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateSession(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/sessions", createRequest("s1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created types.CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Equal(t, "s1", created.SessionID)
}

func TestCreateSessionConflict(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/sessions", createRequest("s1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/sessions", createRequest("s1"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateSessionValidation(t *testing.T) {
	srv := testServer(t)

	cases := []struct {
		name   string
		mutate func(*types.CreateSessionRequest)
		want   int
	}{
		{"missing id", func(r *types.CreateSessionRequest) { r.SessionID = "" }, http.StatusUnprocessableEntity},
		{"unknown format", func(r *types.CreateSessionRequest) { r.FormatID = "nope" }, http.StatusUnprocessableEntity},
		{"empty seats", func(r *types.CreateSessionRequest) { r.Seats = nil }, http.StatusUnprocessableEntity},
		{"empty pool", func(r *types.CreateSessionRequest) { r.Pool = nil }, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := createRequest("v-" + tc.name)
			tc.mutate(&req)
			resp := postJSON(t, srv.URL+"/sessions", req)
			require.Equal(t, tc.want, resp.StatusCode)

			var errResp types.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			require.NotEmpty(t, errResp.Error)
		})
	}
}

func TestCreateSessionBadJSON(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionStatus(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/sessions", createRequest("s1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status types.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, "waiting", status.State.Status)
	require.Equal(t, "s1", status.State.SessionID)
	require.Len(t, status.State.Pool, 40)
	require.Nil(t, status.Deadline)
	require.Nil(t, status.CompletedAt)
}

func TestSessionStatusNotFound(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/sessions/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
