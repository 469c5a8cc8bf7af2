package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftpit/draftpit/internal/hub"
	"github.com/draftpit/draftpit/internal/session"
	"github.com/draftpit/draftpit/pkg/types"
)

// Handler upgrades a connection and bridges it to the session's
// coordinator: one writer goroutine draining the outbox, one reader loop
// feeding decoded commands in. The coordinator decides what this
// connection is allowed to see; the transport never filters.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("session")
		if id == "" {
			http.Error(w, "missing session", http.StatusBadRequest)
			return
		}
		participant := r.URL.Query().Get("participant")

		sess := h.Get(id)
		if sess == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		out := make(chan types.ServerMessage, 16)
		connID := uuid.NewString()

		sess.Inbox() <- session.Join{ConnID: connID, ParticipantID: participant, Outbox: out}
		defer func() { sess.Inbox() <- session.Leave{ConnID: connID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("encode server message", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 5*time.Second)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			// Outbox closed: the session is over or dropped us.
			_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				reply, _ := json.Marshal(types.ServerMessage{Type: "error", Message: "malformed message"})
				_ = conn.Write(r.Context(), websocket.MessageText, reply)
				continue
			}
			sess.Inbox() <- session.FromClient{ConnID: connID, Msg: cm}
		}
	}
}
