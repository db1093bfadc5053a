package server

import (
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCreateAndList(t *testing.T) {
	svc := NewService(testLogger(), quartz.NewMock(t), nil)

	cfg := testTableConfig()
	table, err := svc.CreateTable(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, table.ID)

	_, err = svc.CreateTable(cfg)
	assert.ErrorIs(t, err, ErrTableNameTaken)

	cfg2 := testTableConfig()
	cfg2.Name = "second"
	_, err = svc.CreateTable(cfg2)
	require.NoError(t, err)

	infos := svc.ListTables()
	assert.Len(t, infos, 2)

	assert.Equal(t, table, svc.GetTable(table.ID))
	assert.Equal(t, table, svc.GetTableByName("test"))
	assert.Nil(t, svc.GetTable("missing"))
	assert.Nil(t, svc.GetTableByName("missing"))
}

func TestServiceJoinAndLeave(t *testing.T) {
	svc := NewService(testLogger(), quartz.NewMock(t), nil)
	table, err := svc.CreateTable(testTableConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.JoinTable("missing", "alice", 1000, -1), ErrTableNotFound)

	require.NoError(t, svc.JoinTable(table.ID, "alice", 1000, -1))
	require.NoError(t, svc.JoinTable(table.ID, "bob", 1000, -1))

	info := svc.GetTable(table.ID).Info()
	assert.Equal(t, 2, info.PlayerCount)

	require.NoError(t, svc.LeaveTable(table.ID, "alice"))
	assert.ErrorIs(t, svc.LeaveTable(table.ID, "alice"), ErrPlayerNotSeated)
	assert.ErrorIs(t, svc.LeaveTable("missing", "bob"), ErrTableNotFound)
}

func TestServiceActionFlow(t *testing.T) {
	svc := NewService(testLogger(), quartz.NewMock(t), nil)
	table, err := svc.CreateTable(testTableConfig())
	require.NoError(t, err)

	require.NoError(t, svc.JoinTable(table.ID, "alice", 1000, 0))
	require.NoError(t, svc.JoinTable(table.ID, "bob", 1000, 1))
	require.NoError(t, svc.StartHand(table.ID))

	state, err := svc.TableState(table.ID)
	require.NoError(t, err)
	assert.Equal(t, "preflop", state.Phase)

	// Heads-up: bob is the big blind and acts first.
	require.NoError(t, svc.HandleAction(table.ID, "bob", "call", 0))

	_, err = svc.TableState("missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.ErrorIs(t, svc.StartHand("missing"), ErrTableNotFound)
	assert.ErrorIs(t, svc.HandleAction("missing", "bob", "call", 0), ErrTableNotFound)
}
