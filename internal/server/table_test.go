package server

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// recordingBroadcaster captures broadcast messages for assertions.
type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []*Message
}

func (b *recordingBroadcaster) BroadcastToTable(tableID string, msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

func (b *recordingBroadcaster) ofType(mt MessageType) []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Message
	for _, msg := range b.msgs {
		if msg.Type == mt {
			out = append(out, msg)
		}
	}
	return out
}

func testTableConfig() TableConfig {
	return TableConfig{
		Name:                 "test",
		MaxSeats:             6,
		SmallBlind:           10,
		BigBlind:             20,
		BuyInMin:             100,
		BuyInMax:             2000,
		ActionTimeoutSeconds: 30,
	}
}

func playerStatus(t *testing.T, state TableStateData, seat int) string {
	t.Helper()
	for _, p := range state.Players {
		if p.Seat == seat {
			return p.Status
		}
	}
	t.Fatalf("no player at seat %d", seat)
	return ""
}

func TestTableJoinValidation(t *testing.T) {
	table := NewTable(testTableConfig(), testLogger(), quartz.NewMock(t), nil)

	_, err := table.Join("alice", 1000, 0)
	require.NoError(t, err)

	_, err = table.Join("alice", 1000, 1)
	assert.ErrorIs(t, err, ErrAlreadySeated)

	_, err = table.Join("bob", 50, 1)
	assert.ErrorIs(t, err, ErrInvalidBuyIn)

	_, err = table.Join("bob", 5000, 1)
	assert.ErrorIs(t, err, ErrInvalidBuyIn)

	assert.ErrorIs(t, table.Leave("carol"), ErrPlayerNotSeated)
	assert.NoError(t, table.Leave("alice"))
}

func TestTableStartHandBroadcasts(t *testing.T) {
	rec := &recordingBroadcaster{}
	table := NewTable(testTableConfig(), testLogger(), quartz.NewMock(t), rec)

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := table.Join(name, 1000, i)
		require.NoError(t, err)
	}
	require.NoError(t, table.StartHand())

	assert.Len(t, rec.ofType(MessageTypeHandStart), 1)
	assert.Len(t, rec.ofType(MessageTypeBlindPosted), 2)
	require.NotEmpty(t, rec.ofType(MessageTypePlayerTurn))

	state := table.State()
	assert.Equal(t, "preflop", state.Phase)
	assert.Equal(t, 30, state.Pot)
	assert.Equal(t, 20, state.CurrentBet)
	assert.Equal(t, 0, state.DealerSeat)
	assert.Equal(t, 0, state.TurnSeat)
	assert.Len(t, state.Players, 3)
}

func TestTableActionRouting(t *testing.T) {
	table := NewTable(testTableConfig(), testLogger(), quartz.NewMock(t), nil)

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := table.Join(name, 1000, i)
		require.NoError(t, err)
	}
	require.NoError(t, table.StartHand())

	// Seat 0 (alice) is on turn.
	assert.Error(t, table.Action("bob", "call", 0))
	assert.Error(t, table.Action("dave", "call", 0), "unseated player")
	assert.Error(t, table.Action("alice", "levitate", 0), "unknown action name")
	assert.NoError(t, table.Action("alice", "call", 0))

	state := table.State()
	assert.Equal(t, 1, state.TurnSeat)
	assert.Equal(t, 50, state.Pot)
}

func TestTableActionTimeoutAutoFolds(t *testing.T) {
	mock := quartz.NewMock(t)
	rec := &recordingBroadcaster{}
	table := NewTable(testTableConfig(), testLogger(), mock, rec)

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := table.Join(name, 1000, i)
		require.NoError(t, err)
	}
	require.NoError(t, table.StartHand())
	require.Equal(t, 0, table.State().TurnSeat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(30 * time.Second).MustWait(ctx)

	state := table.State()
	assert.Equal(t, "folded", playerStatus(t, state, 0))
	assert.Equal(t, 1, state.TurnSeat)
}

func TestTableActionDisarmsTimeout(t *testing.T) {
	mock := quartz.NewMock(t)
	table := NewTable(testTableConfig(), testLogger(), mock, nil)

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := table.Join(name, 1000, i)
		require.NoError(t, err)
	}
	require.NoError(t, table.StartHand())
	require.NoError(t, table.Action("alice", "call", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(30 * time.Second).MustWait(ctx)

	// Alice acted in time; only the seat that stalled gets folded.
	state := table.State()
	assert.Equal(t, "active", playerStatus(t, state, 0))
	assert.Equal(t, "folded", playerStatus(t, state, 1))
}

func TestTableAutoStart(t *testing.T) {
	mock := quartz.NewMock(t)
	cfg := testTableConfig()
	cfg.AutoStart = true
	table := NewTable(cfg, testLogger(), mock, nil)

	_, err := table.Join("alice", 1000, 0)
	require.NoError(t, err)
	assert.False(t, table.HandInProgress(), "one player is not enough")

	_, err = table.Join("bob", 1000, 1)
	require.NoError(t, err)
	assert.True(t, table.HandInProgress(), "second join should deal the first hand")

	// Heads-up the big blind acts first; folding ends the hand.
	state := table.State()
	require.Equal(t, 1, state.TurnSeat)
	require.NoError(t, table.Action("bob", "fold", 0))
	require.False(t, table.HandInProgress())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(handBreak).MustWait(ctx)

	assert.True(t, table.HandInProgress(), "next hand should auto-start after the break")
}

func TestTableLeaveMidHandFoldsPlayer(t *testing.T) {
	rec := &recordingBroadcaster{}
	table := NewTable(testTableConfig(), testLogger(), quartz.NewMock(t), rec)

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := table.Join(name, 1000, i)
		require.NoError(t, err)
	}
	require.NoError(t, table.StartHand())

	require.NoError(t, table.Leave("alice"))

	state := table.State()
	assert.Len(t, state.Players, 2)
	assert.Equal(t, 1, state.TurnSeat, "turn passes on when the actor leaves")
}
