package engine

import (
	"errors"
	"math/rand"
	"slices"
)

var (
	ErrSessionNotActive = errors.New("session not active")
	ErrSessionOver      = errors.New("session already over")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrWrongKind        = errors.New("wrong action for current phase")
	ErrSeatNotEligible  = errors.New("seat not eligible this phase")
	ErrAlreadySubmitted = errors.New("seat already submitted this phase")
	ErrWrongCount       = errors.New("wrong selection count")
	ErrItemUnavailable  = errors.New("item not available")
	ErrDuplicateItem    = errors.New("duplicate item in submission")
	ErrItemClaimed      = errors.New("item already claimed this phase")
	ErrUnsupportedInput = errors.New("unsupported input")
)

// Input is the closed set of state machine inputs. The unexported marker
// keeps the set closed to this package, so the switch in Apply stays
// exhaustive.
type Input interface{ isInput() }

type Start struct{}

type SubmitBans struct {
	Seat  int
	Items []string
}

type SubmitPick struct {
	Seat int
	Item string
}

type Cancel struct{ Reason CancelReason }

// Timeout fills every still-pending seat's shortfall with uniformly
// random items from the remaining pool and completes the phase. The
// random source is an explicit capability so transitions stay
// deterministic under test.
type Timeout struct{ Rand *rand.Rand }

func (Start) isInput()      {}
func (SubmitBans) isInput() {}
func (SubmitPick) isInput() {}
func (Cancel) isInput()     {}
func (Timeout) isInput()    {}

// Event is the closed set of domain events Apply can emit.
type Event interface{ isEvent() }

type Started struct{ PhaseIdx int }

type BansSubmitted struct {
	Seat     int
	PhaseIdx int
	Items    []string
}

type PickSubmitted struct {
	Seat     int
	PhaseIdx int
	Item     string
}

type AutoFilled struct {
	Seat     int
	PhaseIdx int
	Items    []string
}

type BansRevealed struct {
	PhaseIdx   int
	Selections []Selection
}

type PhaseAdvanced struct{ PhaseIdx int }

type Completed struct{}

type Cancelled struct{ Reason CancelReason }

func (Started) isEvent()       {}
func (BansSubmitted) isEvent() {}
func (PickSubmitted) isEvent() {}
func (AutoFilled) isEvent()    {}
func (BansRevealed) isEvent()  {}
func (PhaseAdvanced) isEvent() {}
func (Completed) isEvent()     {}
func (Cancelled) isEvent()     {}

// Apply runs one transition. It is pure: no I/O, no hidden state, and
// the input state is never mutated. On error the returned state is the
// input state unchanged.
func Apply(s State, in Input) ([]Event, State, error) {
	switch in := in.(type) {
	case Start:
		return applyStart(s)
	case SubmitBans:
		return applyBans(s, in)
	case SubmitPick:
		return applyPick(s, in)
	case Timeout:
		return applyTimeout(s, in)
	case Cancel:
		return applyCancel(s, in)
	default:
		return nil, s, ErrUnsupportedInput
	}
}

func applyStart(s State) ([]Event, State, error) {
	if s.Terminal() {
		return nil, s, ErrSessionOver
	}
	if s.Status != StatusWaiting {
		return nil, s, ErrAlreadyStarted
	}
	ns := s.clone()
	ns.Status = StatusActive
	ns.PhaseIdx = 0
	return []Event{Started{PhaseIdx: 0}}, ns, nil
}

func applyBans(s State, in SubmitBans) ([]Event, State, error) {
	ph, err := activePhase(s, KindBan)
	if err != nil {
		return nil, s, err
	}
	if !ph.eligible(in.Seat, len(s.Seats)) {
		return nil, s, ErrSeatNotEligible
	}
	if len(s.submissions(KindBan)[in.Seat]) >= ph.Count {
		return nil, s, ErrAlreadySubmitted
	}
	if len(in.Items) != ph.Count {
		return nil, s, ErrWrongCount
	}
	for i, item := range in.Items {
		if !slices.Contains(s.Pool, item) {
			return nil, s, ErrItemUnavailable
		}
		if slices.Contains(in.Items[:i], item) {
			return nil, s, ErrDuplicateItem
		}
	}
	// Concurrent blind submissions may legitimately overlap until the
	// reveal; the cross-seat claim check only applies when bans are open.
	if !s.BlindBans {
		for seat, claimed := range s.Pending {
			if seat == in.Seat {
				continue
			}
			for _, item := range in.Items {
				if slices.Contains(claimed, item) {
					return nil, s, ErrItemClaimed
				}
			}
		}
	}

	ns := s.clone()
	sub := ns.submissions(KindBan)
	sub[in.Seat] = append(sub[in.Seat], in.Items...)
	events := []Event{BansSubmitted{Seat: in.Seat, PhaseIdx: ns.PhaseIdx, Items: slices.Clone(in.Items)}}
	events = append(events, completeIfReady(&ns)...)
	return events, ns, nil
}

func applyPick(s State, in SubmitPick) ([]Event, State, error) {
	ph, err := activePhase(s, KindPick)
	if err != nil {
		return nil, s, err
	}
	if !ph.eligible(in.Seat, len(s.Seats)) {
		return nil, s, ErrSeatNotEligible
	}
	if len(s.Pending[in.Seat]) >= ph.Count {
		return nil, s, ErrAlreadySubmitted
	}
	// Picks are taken one at a time and leave the pool immediately, so a
	// pool membership check covers duplicates and cross-seat claims both.
	if !slices.Contains(s.Pool, in.Item) {
		return nil, s, ErrItemUnavailable
	}

	ns := s.clone()
	ns.Pending[in.Seat] = append(ns.Pending[in.Seat], in.Item)
	ns.removeFromPool(in.Item)
	events := []Event{PickSubmitted{Seat: in.Seat, PhaseIdx: ns.PhaseIdx, Item: in.Item}}
	events = append(events, completeIfReady(&ns)...)
	return events, ns, nil
}

func applyTimeout(s State, in Timeout) ([]Event, State, error) {
	if s.Terminal() {
		return nil, s, ErrSessionOver
	}
	ph, ok := s.ActivePhase()
	if !ok {
		return nil, s, ErrSessionNotActive
	}

	ns := s.clone()
	sub := ns.submissions(ph.Kind)
	var events []Event
	for _, seat := range ph.EligibleSeats(len(ns.Seats)) {
		missing := ph.Count - len(sub[seat])
		if missing <= 0 {
			continue
		}
		fill := drawRandom(&ns, ph, seat, missing, in.Rand)
		if ph.Kind == KindPick {
			for _, item := range fill {
				ns.removeFromPool(item)
			}
		}
		sub[seat] = append(sub[seat], fill...)
		events = append(events, AutoFilled{Seat: seat, PhaseIdx: ns.PhaseIdx, Items: fill})
	}
	events = append(events, completePhase(&ns)...)
	return events, ns, nil
}

func applyCancel(s State, in Cancel) ([]Event, State, error) {
	if s.Terminal() {
		return nil, s, ErrSessionOver
	}
	ns := s.clone()
	ns.Status = StatusCancelled
	ns.CancelReason = in.Reason
	ns.Pending = map[int][]string{}
	ns.HiddenBans = map[int][]string{}
	return []Event{Cancelled{Reason: in.Reason}}, ns, nil
}

func activePhase(s State, want ActionKind) (Phase, error) {
	if s.Terminal() {
		return Phase{}, ErrSessionOver
	}
	ph, ok := s.ActivePhase()
	if !ok {
		return Phase{}, ErrSessionNotActive
	}
	if ph.Kind != want {
		return Phase{}, ErrWrongKind
	}
	return ph, nil
}

// completeIfReady advances the phase once every eligible seat has fully
// submitted.
func completeIfReady(ns *State) []Event {
	ph := ns.Phases[ns.PhaseIdx]
	sub := ns.submissions(ph.Kind)
	for _, seat := range ph.EligibleSeats(len(ns.Seats)) {
		if len(sub[seat]) < ph.Count {
			return nil
		}
	}
	return completePhase(ns)
}

// completePhase commits the active phase's submissions, reveals blind
// bans, and either enters the next phase or finishes the draft.
func completePhase(ns *State) []Event {
	ph := ns.Phases[ns.PhaseIdx]
	var events []Event

	if ph.Kind == KindBan {
		sub := ns.submissions(KindBan)
		var committed []Selection
		for _, seat := range ph.EligibleSeats(len(ns.Seats)) {
			for _, item := range sub[seat] {
				committed = append(committed, Selection{Seat: seat, PhaseIdx: ns.PhaseIdx, Item: item})
			}
		}
		ns.Bans = append(ns.Bans, committed...)
		// Banned items leave the pool only now, so a blind ban's target
		// cannot be inferred from early pool shrinkage. Removal is
		// set-wise: overlapping blind bans remove the item once.
		for _, sel := range committed {
			ns.removeFromPool(sel.Item)
		}
		if ns.BlindBans {
			events = append(events, BansRevealed{PhaseIdx: ns.PhaseIdx, Selections: committed})
		}
	} else {
		for _, seat := range ph.EligibleSeats(len(ns.Seats)) {
			for _, item := range ns.Pending[seat] {
				ns.Picks = append(ns.Picks, Selection{Seat: seat, PhaseIdx: ns.PhaseIdx, Item: item})
			}
		}
	}

	ns.Pending = map[int][]string{}
	ns.HiddenBans = map[int][]string{}
	ns.PhaseIdx++
	if ns.PhaseIdx == len(ns.Phases) {
		ns.Status = StatusComplete
		events = append(events, Completed{})
	} else {
		events = append(events, PhaseAdvanced{PhaseIdx: ns.PhaseIdx})
	}
	return events
}

// drawRandom samples count distinct replacement items for a seat. Bans
// have not left the pool yet, so the seat's own submission is excluded,
// and in open-ban mode every other seat's claims are too.
func drawRandom(ns *State, ph Phase, seat, count int, rnd *rand.Rand) []string {
	taken := func(item string) bool {
		if ph.Kind != KindBan {
			return false
		}
		if slices.Contains(ns.submissions(KindBan)[seat], item) {
			return true
		}
		if !ns.BlindBans {
			for other, claimed := range ns.Pending {
				if other != seat && slices.Contains(claimed, item) {
					return true
				}
			}
		}
		return false
	}

	var candidates []string
	for _, item := range ns.Pool {
		if !taken(item) {
			candidates = append(candidates, item)
		}
	}
	if count > len(candidates) {
		count = len(candidates)
	}
	picked := make([]string, 0, count)
	for _, i := range rnd.Perm(len(candidates))[:count] {
		picked = append(picked, candidates[i])
	}
	return picked
}
