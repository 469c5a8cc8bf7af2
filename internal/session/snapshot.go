package session

import (
	"slices"

	"github.com/draftpit/draftpit/internal/engine"
	"github.com/draftpit/draftpit/pkg/types"
)

// snapshot is the trusted, unredacted view used for the status endpoint
// and the outcome payload.
func (s *Session) snapshot() types.StateSnapshot {
	snap := baseSnapshot(s.state)
	for seat, items := range s.state.HiddenBans {
		snap.Pending[seat] = slices.Clone(items)
		snap.Submitted[seat] = true
	}
	return snap
}

// snapshotFor builds the view one connection may see. During an
// unrevealed blind ban phase a viewer sees only its own seat's pending
// submission; everyone else is reduced to a submitted flag.
func (s *Session) snapshotFor(viewer int) *types.StateSnapshot {
	snap := baseSnapshot(s.state)
	for seat, items := range s.state.HiddenBans {
		snap.Submitted[seat] = true
		if seat == viewer {
			snap.Pending[seat] = slices.Clone(items)
		}
	}
	return &snap
}

func baseSnapshot(st engine.State) types.StateSnapshot {
	snap := types.StateSnapshot{
		SessionID:    st.ID,
		FormatID:     st.FormatID,
		Status:       string(st.Status),
		PhaseIndex:   st.PhaseIdx,
		Phases:       make([]types.Phase, 0, len(st.Phases)),
		Seats:        make([]types.Seat, 0, len(st.Seats)),
		Pool:         slices.Clone(st.Pool),
		Bans:         selectionDTOs(st.Bans),
		Picks:        selectionDTOs(st.Picks),
		Pending:      map[int][]string{},
		Submitted:    map[int]bool{},
		CancelReason: string(st.CancelReason),
	}
	for _, ph := range st.Phases {
		snap.Phases = append(snap.Phases, types.Phase{
			Kind:            string(ph.Kind),
			Seats:           slices.Clone(ph.Seats),
			Count:           ph.Count,
			DeadlineSeconds: ph.DeadlineSec,
		})
	}
	for _, seat := range st.Seats {
		snap.Seats = append(snap.Seats, types.Seat{
			ParticipantID: seat.ParticipantID,
			Name:          seat.Name,
			Team:          seat.Team,
		})
	}
	ph, active := st.ActivePhase()
	for seat, items := range st.Pending {
		snap.Pending[seat] = slices.Clone(items)
		snap.Submitted[seat] = active && len(items) >= ph.Count
	}
	return snap
}

func selectionDTOs(sels []engine.Selection) []types.Selection {
	out := make([]types.Selection, 0, len(sels))
	for _, sel := range sels {
		out = append(out, types.Selection{Seat: sel.Seat, PhaseIndex: sel.PhaseIdx, Item: sel.Item})
	}
	return out
}

// redactEvents converts engine events to wire shape, zeroing blind-ban
// item lists for every recipient other than the submitting seat.
func (s *Session) redactEvents(events []engine.Event, viewer int) []types.Event {
	out := make([]types.Event, 0, len(events))
	for _, ev := range events {
		dto := eventDTO(ev)
		if bs, ok := ev.(engine.BansSubmitted); ok && s.state.BlindBans && bs.Seat != viewer {
			dto.Items = nil
		}
		out = append(out, dto)
	}
	return out
}

func eventDTO(ev engine.Event) types.Event {
	switch ev := ev.(type) {
	case engine.Started:
		return types.Event{Type: "started", PhaseIndex: intPtr(ev.PhaseIdx)}
	case engine.BansSubmitted:
		return types.Event{Type: "bans_submitted", Seat: intPtr(ev.Seat), PhaseIndex: intPtr(ev.PhaseIdx), Items: slices.Clone(ev.Items)}
	case engine.PickSubmitted:
		return types.Event{Type: "pick_submitted", Seat: intPtr(ev.Seat), PhaseIndex: intPtr(ev.PhaseIdx), Item: ev.Item}
	case engine.AutoFilled:
		return types.Event{Type: "auto_filled", Seat: intPtr(ev.Seat), PhaseIndex: intPtr(ev.PhaseIdx), Items: slices.Clone(ev.Items)}
	case engine.BansRevealed:
		return types.Event{Type: "bans_revealed", PhaseIndex: intPtr(ev.PhaseIdx), Selections: selectionDTOs(ev.Selections)}
	case engine.PhaseAdvanced:
		return types.Event{Type: "phase_advanced", PhaseIndex: intPtr(ev.PhaseIdx)}
	case engine.Completed:
		return types.Event{Type: "completed"}
	case engine.Cancelled:
		return types.Event{Type: "cancelled", Reason: string(ev.Reason)}
	}
	return types.Event{Type: "unknown"}
}

func intPtr(v int) *int { return &v }
