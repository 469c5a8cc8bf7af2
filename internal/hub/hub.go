// Package hub owns the live session map. Creation, lookup and removal
// all run through one goroutine, so duplicate-id checks never race.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/draftpit/draftpit/internal/session"
)

var ErrConflict = errors.New("session already initialized")

type Msg interface{ isHubMsg() }

type createSession struct {
	cfg   session.Config
	reply chan createResult
}

type getSession struct {
	id    string
	reply chan *session.Session
}

type removeSession struct{ id string }

type shutdownHub struct{}

func (createSession) isHubMsg() {}
func (getSession) isHubMsg()    {}
func (removeSession) isHubMsg() {}
func (shutdownHub) isHubMsg()   {}

type createResult struct {
	sess *session.Session
	err  error
}

type Hub struct {
	inbox    chan Msg
	sessions map[string]*session.Session
	deps     session.Deps
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, deps session.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan Msg, 64),
		sessions: make(map[string]*session.Session),
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

// Create initializes a new session. A second attempt for the same id is
// a conflict; config validation errors come back from session.New.
func (h *Hub) Create(cfg session.Config) (*session.Session, error) {
	reply := make(chan createResult, 1)
	h.inbox <- createSession{cfg: cfg, reply: reply}
	res := <-reply
	return res.sess, res.err
}

// Get returns the session for id, or nil.
func (h *Hub) Get(id string) *session.Session {
	reply := make(chan *session.Session, 1)
	h.inbox <- getSession{id: id, reply: reply}
	return <-reply
}

// Remove drops a session from the map; the external orchestrator calls
// this once it has consumed the outcome.
func (h *Hub) Remove(id string) {
	h.inbox <- removeSession{id: id}
}

func (h *Hub) Shutdown() {
	h.inbox <- shutdownHub{}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return
		case m := <-h.inbox:
			switch msg := m.(type) {
			case createSession:
				if _, exists := h.sessions[msg.cfg.ID]; exists {
					msg.reply <- createResult{err: ErrConflict}
					break
				}
				deps := h.deps
				deps.Log = h.deps.Log.With(zap.String("session_id", msg.cfg.ID))
				sess, err := session.New(h.ctx, msg.cfg, deps)
				if err == nil {
					h.sessions[msg.cfg.ID] = sess
				}
				msg.reply <- createResult{sess: sess, err: err}

			case getSession:
				msg.reply <- h.sessions[msg.id]

			case removeSession:
				if sess := h.sessions[msg.id]; sess != nil {
					sess.Inbox() <- session.Shutdown{}
					delete(h.sessions, msg.id)
				}

			case shutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for id, sess := range h.sessions {
		sess.Inbox() <- session.Shutdown{}
		delete(h.sessions, id)
	}
	h.cancel()
}
