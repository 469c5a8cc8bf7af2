package session

import (
	"github.com/draftpit/draftpit/internal/engine"
	"github.com/draftpit/draftpit/pkg/types"
)

// handleCommand authorizes and dispatches one client message. Failures
// answer the sender alone; nothing is broadcast and state is untouched.
func (s *Session) handleCommand(msg FromClient) {
	c, ok := s.clients[msg.ConnID]
	if !ok {
		return
	}
	m := msg.Msg

	switch m.Type {
	case "start", "cancel", "config":
		if c.participantID == "" || c.participantID != s.cfg.HostID {
			s.sendError(msg.ConnID, c, "only the host may "+m.Type)
			return
		}
	case "ban", "pick":
		if c.seat < 0 {
			s.sendError(msg.ConnID, c, "spectators cannot submit selections")
			return
		}
	default:
		s.sendError(msg.ConnID, c, "unknown message type: "+m.Type)
		return
	}

	if m.Type == "config" {
		s.handleConfig(msg.ConnID, c, m)
		return
	}

	in, errText := toInput(m, c.seat)
	if errText != "" {
		s.sendError(msg.ConnID, c, errText)
		return
	}
	events, ns, err := engine.Apply(s.state, in)
	if err != nil {
		s.sendError(msg.ConnID, c, err.Error())
		return
	}
	s.commit(ns, events)
}

// handleConfig rewrites the per-kind deadlines of phases not yet
// entered. Only allowed while the session is still waiting.
func (s *Session) handleConfig(connID string, c *client, m types.ClientMessage) {
	if s.state.Status != engine.StatusWaiting {
		s.sendError(connID, c, "timers can only be changed before the draft starts")
		return
	}
	phases := make([]engine.Phase, len(s.state.Phases))
	copy(phases, s.state.Phases)
	overrideDeadlines(phases, m.BanDeadlineSeconds, m.PickDeadlineSeconds)
	s.state.Phases = phases
	s.commit(s.state, nil)
}

func toInput(m types.ClientMessage, seat int) (engine.Input, string) {
	switch m.Type {
	case "start":
		return engine.Start{}, ""
	case "ban":
		return engine.SubmitBans{Seat: seat, Items: m.Items}, ""
	case "pick":
		return engine.SubmitPick{Seat: seat, Item: m.Item}, ""
	case "cancel":
		reason := engine.CancelReason(m.Reason)
		if reason != engine.ReasonCancel && reason != engine.ReasonScrub {
			return nil, "unknown cancel reason: " + m.Reason
		}
		return engine.Cancel{Reason: reason}, ""
	}
	return nil, "unknown message type: " + m.Type
}
