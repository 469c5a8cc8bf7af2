// Package format declares the built-in draft formats: static data plus a
// pure phase-list generator per format.
package format

import (
	"errors"
	"sort"

	"github.com/draftpit/draftpit/internal/engine"
)

var (
	ErrUnknownFormat = errors.New("unknown format")
	ErrSeatCount     = errors.New("unsupported seat count for format")
)

const (
	defaultBanDeadlineSec  = 30
	defaultPickDeadlineSec = 45
)

type Format struct {
	ID        string
	Mode      string
	BlindBans bool
	// Phases maps a seat count to the concrete ordered phase list.
	Phases func(seatCount int) ([]engine.Phase, error)
}

var registry = map[string]Format{
	"duel": {
		ID:        "duel",
		Mode:      "duel",
		BlindBans: false,
		Phases: func(seats int) ([]engine.Phase, error) {
			if seats != 2 {
				return nil, ErrSeatCount
			}
			return []engine.Phase{
				ban(nil, 2),
				pick(0, 1),
				pick(1, 1),
			}, nil
		},
	},
	"teams2": {
		ID:        "teams2",
		Mode:      "team",
		BlindBans: true,
		Phases: func(seats int) ([]engine.Phase, error) {
			if seats != 2 {
				return nil, ErrSeatCount
			}
			return []engine.Phase{
				ban(nil, 3),
				pick(0, 1),
				pick(1, 2),
				pick(0, 1),
			}, nil
		},
	},
	"teams3": {
		ID:        "teams3",
		Mode:      "team",
		BlindBans: true,
		Phases: func(seats int) ([]engine.Phase, error) {
			if seats != 3 {
				return nil, ErrSeatCount
			}
			phases := []engine.Phase{ban(nil, 2)}
			// Two single-pick rounds, snaked.
			for _, seat := range []int{0, 1, 2, 2, 1, 0} {
				phases = append(phases, pick(seat, 1))
			}
			return phases, nil
		},
	},
	"ffa": {
		ID:        "ffa",
		Mode:      "ffa",
		BlindBans: true,
		Phases: func(seats int) ([]engine.Phase, error) {
			if seats < 2 {
				return nil, ErrSeatCount
			}
			phases := []engine.Phase{ban(nil, 2)}
			for seat := 0; seat < seats; seat++ {
				phases = append(phases, pick(seat, 1))
			}
			return phases, nil
		},
	},
}

// Lookup returns the format registered under id.
func Lookup(id string) (Format, bool) {
	f, ok := registry[id]
	return f, ok
}

// IDs lists the registered format ids in stable order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func ban(seats []int, count int) engine.Phase {
	return engine.Phase{Kind: engine.KindBan, Seats: seats, Count: count, DeadlineSec: defaultBanDeadlineSec}
}

func pick(seat, count int) engine.Phase {
	return engine.Phase{Kind: engine.KindPick, Seats: []int{seat}, Count: count, DeadlineSec: defaultPickDeadlineSec}
}
