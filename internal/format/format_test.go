package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftpit/draftpit/internal/engine"
)

func TestLookup(t *testing.T) {
	for _, id := range []string{"duel", "teams2", "teams3", "ffa"} {
		f, ok := Lookup(id)
		require.True(t, ok, id)
		require.Equal(t, id, f.ID)
	}
	_, ok := Lookup("nope")
	require.False(t, ok)
}

func TestIDs(t *testing.T) {
	require.Equal(t, []string{"duel", "ffa", "teams2", "teams3"}, IDs())
}

func TestDuelPhases(t *testing.T) {
	f, _ := Lookup("duel")
	require.False(t, f.BlindBans)

	phases, err := f.Phases(2)
	require.NoError(t, err)
	require.Len(t, phases, 3)
	require.Equal(t, engine.KindBan, phases[0].Kind)
	require.Nil(t, phases[0].Seats)
	require.Equal(t, 2, phases[0].Count)
	require.Equal(t, []int{0}, phases[1].Seats)
	require.Equal(t, []int{1}, phases[2].Seats)

	_, err = f.Phases(3)
	require.ErrorIs(t, err, ErrSeatCount)
}

func TestTwoTeamPhases(t *testing.T) {
	f, _ := Lookup("teams2")
	require.True(t, f.BlindBans)

	phases, err := f.Phases(2)
	require.NoError(t, err)
	require.Len(t, phases, 4)
	require.Equal(t, 3, phases[0].Count)

	// 1-2-1 pick rotation, 4 picks total.
	var picks int
	for _, ph := range phases[1:] {
		require.Equal(t, engine.KindPick, ph.Kind)
		picks += ph.Count * len(ph.Seats)
	}
	require.Equal(t, 4, picks)
	require.Equal(t, []int{0}, phases[1].Seats)
	require.Equal(t, []int{1}, phases[2].Seats)
	require.Equal(t, 2, phases[2].Count)
	require.Equal(t, []int{0}, phases[3].Seats)
}

func TestThreeTeamPhases(t *testing.T) {
	f, _ := Lookup("teams3")
	phases, err := f.Phases(3)
	require.NoError(t, err)
	require.Len(t, phases, 7)
	require.Equal(t, engine.KindBan, phases[0].Kind)

	// Snaked single picks: 0 1 2 2 1 0.
	order := make([]int, 0, 6)
	for _, ph := range phases[1:] {
		require.Len(t, ph.Seats, 1)
		order = append(order, ph.Seats[0])
	}
	require.Equal(t, []int{0, 1, 2, 2, 1, 0}, order)

	_, err = f.Phases(2)
	require.ErrorIs(t, err, ErrSeatCount)
}

func TestFreeForAllIsParametric(t *testing.T) {
	f, _ := Lookup("ffa")
	for _, seats := range []int{2, 4, 8} {
		phases, err := f.Phases(seats)
		require.NoError(t, err)
		require.Len(t, phases, seats+1)
		require.Equal(t, engine.KindBan, phases[0].Kind)
		require.Equal(t, 2, phases[0].Count)
		for i, ph := range phases[1:] {
			require.Equal(t, engine.KindPick, ph.Kind)
			require.Equal(t, []int{i}, ph.Seats)
			require.Equal(t, 1, ph.Count)
		}
	}
	_, err := f.Phases(1)
	require.ErrorIs(t, err, ErrSeatCount)
}

func TestEveryPhaseHasADeadline(t *testing.T) {
	for _, id := range IDs() {
		f, _ := Lookup(id)
		seats := 2
		if id == "teams3" {
			seats = 3
		}
		phases, err := f.Phases(seats)
		require.NoError(t, err)
		for i, ph := range phases {
			require.Greater(t, ph.DeadlineSec, 0, "%s phase %d", id, i)
		}
	}
}
