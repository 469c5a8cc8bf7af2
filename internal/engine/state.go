package engine

import "slices"

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusComplete  Status = "complete"
	StatusCancelled Status = "cancelled"
)

type ActionKind string

const (
	KindBan  ActionKind = "ban"
	KindPick ActionKind = "pick"
)

type CancelReason string

const (
	// ReasonCancel is a host cancellation before anything was locked in.
	ReasonCancel CancelReason = "cancel"
	// ReasonScrub voids a draft mid- or post-session.
	ReasonScrub CancelReason = "scrub"
)

// Seat is one participant slot: a whole team in team formats, an
// individual in free-for-all.
type Seat struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Team          int    `json:"team"` // -1 when the format has no team grouping
}

// Phase is one ordered step of the draft. Seats nil means every seat acts.
// DeadlineSec 0 means the phase is untimed.
type Phase struct {
	Kind        ActionKind `json:"kind"`
	Seats       []int      `json:"seats,omitempty"`
	Count       int        `json:"count"`
	DeadlineSec int        `json:"deadline_sec"`
}

// EligibleSeats resolves the acting seats to explicit indexes.
func (p Phase) EligibleSeats(seatCount int) []int {
	if p.Seats == nil {
		all := make([]int, seatCount)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return p.Seats
}

func (p Phase) eligible(seat, seatCount int) bool {
	return slices.Contains(p.EligibleSeats(seatCount), seat)
}

// Selection is one committed item, tagged with the seat and phase that
// produced it.
type Selection struct {
	Seat     int    `json:"seat"`
	PhaseIdx int    `json:"phase_idx"`
	Item     string `json:"item"`
}

// State is the full draft session state. It is a value: Apply never
// mutates its argument.
//
// Pending holds the active phase's visible submissions (picks, and bans
// in non-blind formats). HiddenBans holds unrevealed blind-ban
// submissions; it is non-empty only mid-way through a blind ban phase.
// Both are cleared on every phase advance.
type State struct {
	ID           string           `json:"id"`
	FormatID     string           `json:"format_id"`
	BlindBans    bool             `json:"blind_bans"`
	Seats        []Seat           `json:"seats"`
	Phases       []Phase          `json:"phases"`
	PhaseIdx     int              `json:"phase_idx"` // -1 until started, len(Phases) once complete
	Pending      map[int][]string `json:"pending,omitempty"`
	HiddenBans   map[int][]string `json:"hidden_bans,omitempty"`
	Bans         []Selection      `json:"bans"`
	Picks        []Selection      `json:"picks"`
	Pool         []string         `json:"pool"`
	Status       Status           `json:"status"`
	CancelReason CancelReason     `json:"cancel_reason,omitempty"`
}

// NewSession builds the initial waiting state for a draft.
func NewSession(id, formatID string, blindBans bool, seats []Seat, phases []Phase, pool []string) State {
	return State{
		ID:         id,
		FormatID:   formatID,
		BlindBans:  blindBans,
		Seats:      slices.Clone(seats),
		Phases:     slices.Clone(phases),
		PhaseIdx:   -1,
		Pending:    map[int][]string{},
		HiddenBans: map[int][]string{},
		Bans:       []Selection{},
		Picks:      []Selection{},
		Pool:       slices.Clone(pool),
		Status:     StatusWaiting,
	}
}

// ActivePhase returns the phase the session is currently in.
func (s State) ActivePhase() (Phase, bool) {
	if s.Status != StatusActive || s.PhaseIdx < 0 || s.PhaseIdx >= len(s.Phases) {
		return Phase{}, false
	}
	return s.Phases[s.PhaseIdx], true
}

// Terminal reports whether the session reached a final status.
func (s State) Terminal() bool {
	return s.Status == StatusComplete || s.Status == StatusCancelled
}

// submissions returns the map collecting the active phase's entries:
// blind bans go to the hidden buffer, everything else stays visible.
func (s *State) submissions(kind ActionKind) map[int][]string {
	if kind == KindBan && s.BlindBans {
		return s.HiddenBans
	}
	return s.Pending
}

func (s State) clone() State {
	ns := s
	ns.Seats = slices.Clone(s.Seats)
	ns.Phases = slices.Clone(s.Phases)
	ns.Bans = slices.Clone(s.Bans)
	ns.Picks = slices.Clone(s.Picks)
	ns.Pool = slices.Clone(s.Pool)
	ns.Pending = cloneSubmissions(s.Pending)
	ns.HiddenBans = cloneSubmissions(s.HiddenBans)
	return ns
}

func cloneSubmissions(m map[int][]string) map[int][]string {
	out := make(map[int][]string, len(m))
	for seat, items := range m {
		out[seat] = slices.Clone(items)
	}
	return out
}

func (s *State) removeFromPool(item string) {
	if i := slices.Index(s.Pool, item); i >= 0 {
		s.Pool = slices.Delete(s.Pool, i, i+1)
	}
}
