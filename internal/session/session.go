// Package session runs one coordinator per draft. Every command for a
// session flows through a single goroutine, so validate, persist and
// broadcast never interleave between two commands.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/draftpit/draftpit/internal/engine"
	"github.com/draftpit/draftpit/internal/format"
	"github.com/draftpit/draftpit/internal/notify"
	"github.com/draftpit/draftpit/internal/store"
	"github.com/draftpit/draftpit/pkg/types"
)

var (
	ErrUnknownFormat = format.ErrUnknownFormat
	ErrNoSeats       = errors.New("session needs at least one seat")
	ErrEmptyPool     = errors.New("session needs a non-empty item pool")
)

// Config is fixed at initialization; only phase deadlines can still be
// overridden, and only while the session is waiting.
type Config struct {
	ID              string
	HostID          string
	FormatID        string
	Seats           []engine.Seat
	Pool            []string
	BanDeadlineSec  *int
	PickDeadlineSec *int
	Notify          notify.Target
}

// Notifier delivers the terminal outcome payload.
type Notifier interface {
	Deliver(ctx context.Context, t notify.Target, p notify.Payload)
}

type Deps struct {
	Store    store.Store
	Notifier Notifier
	Log      *zap.Logger
	Rand     *rand.Rand       // optional; time-seeded when nil
	Now      func() time.Time // optional; wall clock when nil
}

// Msg is the coordinator's inbox sum type.
type Msg interface{ isSessionMsg() }

type Join struct {
	ConnID        string
	ParticipantID string
	Outbox        chan types.ServerMessage
}

type Leave struct{ ConnID string }

type FromClient struct {
	ConnID string
	Msg    types.ClientMessage
}

type GetStatus struct{ Reply chan Status }

type Shutdown struct{}

type timerFired struct{ phaseIdx int }

func (Join) isSessionMsg()       {}
func (Leave) isSessionMsg()      {}
func (FromClient) isSessionMsg() {}
func (GetStatus) isSessionMsg()  {}
func (Shutdown) isSessionMsg()   {}
func (timerFired) isSessionMsg() {}

type Status struct {
	State       types.StateSnapshot
	Deadline    *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

type client struct {
	participantID string
	seat          int // -1 for spectators
	outbox        chan types.ServerMessage
}

type Session struct {
	inbox    chan Msg
	cfg      Config
	state    engine.State
	clients  map[string]*client
	timer    *time.Timer
	deadline time.Time // zero while no deadline is armed

	completedAt *time.Time
	cancelledAt *time.Time
	notified    bool

	store    store.Store
	notifier Notifier
	log      *zap.Logger
	rng      *rand.Rand
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New validates the config, persists the initial waiting state and
// starts the coordinator goroutine.
func New(parent context.Context, cfg Config, deps Deps) (*Session, error) {
	f, ok := format.Lookup(cfg.FormatID)
	if !ok {
		return nil, ErrUnknownFormat
	}
	if len(cfg.Seats) == 0 {
		return nil, ErrNoSeats
	}
	if len(cfg.Pool) == 0 {
		return nil, ErrEmptyPool
	}
	phases, err := f.Phases(len(cfg.Seats))
	if err != nil {
		return nil, err
	}
	overrideDeadlines(phases, cfg.BanDeadlineSec, cfg.PickDeadlineSec)

	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:    make(chan Msg, 64),
		cfg:      cfg,
		state:    engine.NewSession(cfg.ID, cfg.FormatID, f.BlindBans, cfg.Seats, phases, cfg.Pool),
		clients:  make(map[string]*client),
		store:    deps.Store,
		notifier: deps.Notifier,
		log:      deps.Log,
		rng:      deps.Rand,
		now:      deps.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	if err := s.persist(parent); err != nil {
		cancel()
		return nil, err
	}
	go s.loop()
	return s, nil
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Status is a synchronous read of the session for polling and
// diagnostics.
func (s *Session) Status() Status {
	reply := make(chan Status, 1)
	s.inbox <- GetStatus{Reply: reply}
	return <-reply
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.handleJoin(msg)
			case Leave:
				delete(s.clients, msg.ConnID)
			case FromClient:
				s.handleCommand(msg)
			case timerFired:
				s.handleTimer(msg)
			case GetStatus:
				msg.Reply <- s.status()
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleJoin(msg Join) {
	seat := s.resolveSeat(msg.ParticipantID)
	init := types.ServerMessage{
		Type:        "init",
		State:       s.snapshotFor(seat),
		HostID:      s.cfg.HostID,
		SeatIndex:   &seat,
		Deadline:    s.deadlineAt(),
		CompletedAt: s.terminalAt(),
	}
	if s.state.Terminal() {
		// Snapshot, then straight out the door.
		select {
		case msg.Outbox <- init:
		default:
		}
		close(msg.Outbox)
		return
	}
	c := &client{participantID: msg.ParticipantID, seat: seat, outbox: msg.Outbox}
	s.clients[msg.ConnID] = c
	s.send(msg.ConnID, c, init)
}

func (s *Session) handleTimer(msg timerFired) {
	if s.state.Status != engine.StatusActive {
		return
	}
	// A wake-up tagged with an old phase index raced a normal advance;
	// discard it.
	if msg.phaseIdx != s.state.PhaseIdx {
		return
	}
	events, ns, err := engine.Apply(s.state, engine.Timeout{Rand: s.rng})
	if err != nil {
		s.log.Warn("timeout transition rejected", zap.Error(err))
		return
	}
	s.commit(ns, events)
}

// commit is the single success path for every applied input: persist,
// fix up the deadline, broadcast, then handle terminal bookkeeping.
func (s *Session) commit(ns engine.State, events []engine.Event) {
	s.state = ns
	if ns.Terminal() {
		s.clearTimer()
		s.stampTerminal()
	}
	if err := s.persist(s.ctx); err != nil {
		s.log.Error("persist session state", zap.Error(err))
	}
	s.syncTimer(events)
	s.broadcast(events)
	if ns.Terminal() {
		s.notifyOutcome()
		s.closeAll()
	}
}

func (s *Session) syncTimer(events []engine.Event) {
	if s.state.Terminal() {
		return
	}
	entered := false
	for _, ev := range events {
		switch ev.(type) {
		case engine.Started, engine.PhaseAdvanced:
			entered = true
		}
	}
	if !entered {
		return
	}
	s.clearTimer()
	ph := s.state.Phases[s.state.PhaseIdx]
	if ph.DeadlineSec <= 0 {
		return
	}
	idx := s.state.PhaseIdx
	d := time.Duration(ph.DeadlineSec) * time.Second
	s.deadline = s.now().Add(d)
	s.timer = time.AfterFunc(d, func() {
		select {
		case s.inbox <- timerFired{phaseIdx: idx}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) clearTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
}

func (s *Session) stampTerminal() {
	now := s.now()
	switch s.state.Status {
	case engine.StatusComplete:
		if s.completedAt == nil {
			s.completedAt = &now
		}
	case engine.StatusCancelled:
		if s.cancelledAt == nil {
			s.cancelledAt = &now
		}
	}
}

func (s *Session) notifyOutcome() {
	if s.notified {
		return
	}
	s.notified = true
	p := notify.Payload{
		SessionID: s.cfg.ID,
		HostID:    s.cfg.HostID,
		State:     s.snapshot(),
	}
	if s.state.Status == engine.StatusComplete {
		p.Outcome = "complete"
		p.CompletedAt = s.completedAt
	} else {
		p.Outcome = "cancelled"
		p.CancelledAt = s.cancelledAt
		p.Reason = string(s.state.CancelReason)
	}
	// Detached: retries run on their own clock and never hold up the
	// terminal broadcast or session shutdown.
	go s.notifier.Deliver(context.Background(), s.cfg.Notify, p)
}

func (s *Session) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.store.Save(cctx, store.Record{
		ID:          s.cfg.ID,
		Status:      string(s.state.Status),
		State:       raw,
		CompletedAt: s.completedAt,
		CancelledAt: s.cancelledAt,
	})
}

func (s *Session) broadcast(events []engine.Event) {
	for id, c := range s.clients {
		s.send(id, c, types.ServerMessage{
			Type:        "update",
			State:       s.snapshotFor(c.seat),
			HostID:      s.cfg.HostID,
			Events:      s.redactEvents(events, c.seat),
			Deadline:    s.deadlineAt(),
			CompletedAt: s.terminalAt(),
		})
	}
}

// send drops clients whose outbox is full rather than blocking the
// coordinator.
func (s *Session) send(id string, c *client, msg types.ServerMessage) {
	select {
	case c.outbox <- msg:
	default:
		close(c.outbox)
		delete(s.clients, id)
	}
}

func (s *Session) sendError(id string, c *client, text string) {
	s.send(id, c, types.ServerMessage{Type: "error", Message: text})
}

func (s *Session) closeAll() {
	for id, c := range s.clients {
		close(c.outbox)
		delete(s.clients, id)
	}
}

func (s *Session) shutdown() {
	s.clearTimer()
	s.closeAll()
	s.cancel()
}

func (s *Session) status() Status {
	return Status{
		State:       s.snapshot(),
		Deadline:    s.deadlineAt(),
		CompletedAt: s.completedAt,
		CancelledAt: s.cancelledAt,
	}
}

func (s *Session) resolveSeat(participantID string) int {
	if participantID == "" {
		return -1
	}
	for i, seat := range s.state.Seats {
		if seat.ParticipantID == participantID {
			return i
		}
	}
	return -1
}

func (s *Session) deadlineAt() *time.Time {
	if s.deadline.IsZero() {
		return nil
	}
	d := s.deadline
	return &d
}

// terminalAt is the completion or cancellation instant, whichever the
// session reached.
func (s *Session) terminalAt() *time.Time {
	if s.completedAt != nil {
		return s.completedAt
	}
	return s.cancelledAt
}

func overrideDeadlines(phases []engine.Phase, banSec, pickSec *int) {
	for i := range phases {
		switch phases[i].Kind {
		case engine.KindBan:
			if banSec != nil {
				phases[i].DeadlineSec = max(*banSec, 0)
			}
		case engine.KindPick:
			if pickSec != nil {
				phases[i].DeadlineSec = max(*pickSec, 0)
			}
		}
	}
}
