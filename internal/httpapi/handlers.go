package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/draftpit/draftpit/internal/engine"
	"github.com/draftpit/draftpit/internal/hub"
	"github.com/draftpit/draftpit/internal/notify"
	"github.com/draftpit/draftpit/internal/session"
	"github.com/draftpit/draftpit/pkg/types"
)

// CreateSession is the orchestrator's one-time initialization call.
func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.SessionID == "" {
			writeError(w, http.StatusUnprocessableEntity, "sessionId is required")
			return
		}

		seats := make([]engine.Seat, 0, len(req.Seats))
		for _, seat := range req.Seats {
			seats = append(seats, engine.Seat{
				ParticipantID: seat.ParticipantID,
				Name:          seat.Name,
				Team:          seat.Team,
			})
		}
		cfg := session.Config{
			ID:              req.SessionID,
			HostID:          req.HostID,
			FormatID:        req.FormatID,
			Seats:           seats,
			Pool:            req.Pool,
			BanDeadlineSec:  req.BanDeadlineSeconds,
			PickDeadlineSec: req.PickDeadlineSeconds,
			Notify:          notify.Target{URL: req.NotifyURL, Secret: req.NotifySecret},
		}

		_, err := h.Create(cfg)
		switch {
		case errors.Is(err, hub.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		log.Info("session created",
			zap.String("session_id", req.SessionID),
			zap.String("format_id", req.FormatID),
			zap.Int("seats", len(seats)),
			zap.Int("pool", len(req.Pool)))
		writeJSON(w, http.StatusCreated, types.CreateSessionResponse{SessionID: req.SessionID})
	}
}

// SessionStatus is a read-only view for polling and diagnostics.
func SessionStatus(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := h.Get(chi.URLParam(r, "id"))
		if sess == nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		st := sess.Status()
		writeJSON(w, http.StatusOK, types.StatusResponse{
			State:       st.State,
			Deadline:    st.Deadline,
			CompletedAt: st.CompletedAt,
			CancelledAt: st.CancelledAt,
		})
	}
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
