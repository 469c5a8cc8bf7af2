package hub

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftpit/draftpit/internal/engine"
	"github.com/draftpit/draftpit/internal/notify"
	"github.com/draftpit/draftpit/internal/session"
	"github.com/draftpit/draftpit/internal/store"
)

type noopNotifier struct{}

func (noopNotifier) Deliver(context.Context, notify.Target, notify.Payload) {}

func testHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, session.Deps{
		Store:    store.NewMemory(),
		Notifier: noopNotifier{},
		Log:      zap.NewNop(),
	})
}

func testSessionConfig(id string) session.Config {
	pool := make([]string, 40)
	for i := range pool {
		pool[i] = fmt.Sprintf("item-%02d", i)
	}
	return session.Config{
		ID:       id,
		HostID:   "p-a",
		FormatID: "teams2",
		Seats: []engine.Seat{
			{ParticipantID: "p-a", Team: 0},
			{ParticipantID: "p-b", Team: 1},
		},
		Pool: pool,
	}
}

func TestCreateAndGetSamePointer(t *testing.T) {
	h := testHub(t)

	s1, err := h.Create(testSessionConfig("s1"))
	require.NoError(t, err)
	require.NotNil(t, s1)

	s2 := h.Get("s1")
	require.Same(t, s1, s2)
}

func TestDuplicateCreateIsConflict(t *testing.T) {
	h := testHub(t)

	_, err := h.Create(testSessionConfig("s1"))
	require.NoError(t, err)

	_, err = h.Create(testSessionConfig("s1"))
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateValidationErrorLeavesNoSession(t *testing.T) {
	h := testHub(t)

	cfg := testSessionConfig("s1")
	cfg.FormatID = "nope"
	_, err := h.Create(cfg)
	require.ErrorIs(t, err, session.ErrUnknownFormat)
	require.Nil(t, h.Get("s1"))

	// The id stays free for a valid retry.
	_, err = h.Create(testSessionConfig("s1"))
	require.NoError(t, err)
}

func TestGetUnknownReturnsNil(t *testing.T) {
	h := testHub(t)
	require.Nil(t, h.Get("nope"))
}

func TestRemove(t *testing.T) {
	h := testHub(t)

	_, err := h.Create(testSessionConfig("s1"))
	require.NoError(t, err)

	h.Remove("s1")
	require.Nil(t, h.Get("s1"))
}
