package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func feedChannel(t *testing.T, hub *Hub, playerID, code string) chan ServerMessage {
	t.Helper()
	ch := make(chan ServerMessage, 8)
	hub.Attach(playerID, ch)
	hub.Bind(playerID, code)
	return ch
}

func TestMatchEndedEmitsTotalsFromTracker(t *testing.T) {
	logger := zap.NewNop()
	hub := NewHub(logger)
	tr := NewTracker()
	events := NewEventLog(hub, tr, logger)
	ch := feedChannel(t, hub, "p1", "GAME1")

	tr.TurnStarted("GAME1", "p1")
	tr.TilesMoved("GAME1", "p1", 4)
	tr.DamageDealt("GAME1", "p2", 3)
	tr.Kill("GAME1", "p2")

	events.MatchEnded("GAME1", "alice")

	require.Len(t, ch, 2)
	win := <-ch
	assert.Equal(t, MessageNotice, win.Type)
	assert.Equal(t, "alice wins the match!", win.Text)
	totals := <-ch
	assert.Equal(t, "Match totals: 1 turns, 4 tiles moved, 3 damage dealt, 1 kills.", totals.Text)
}

func TestMatchEndedWithoutCountersSkipsTotals(t *testing.T) {
	logger := zap.NewNop()
	hub := NewHub(logger)
	events := NewEventLog(hub, NewTracker(), logger)
	ch := feedChannel(t, hub, "p1", "GAME1")

	events.MatchEnded("GAME1", "alice")
	require.Len(t, ch, 1)
	assert.Equal(t, "alice wins the match!", (<-ch).Text)
}
