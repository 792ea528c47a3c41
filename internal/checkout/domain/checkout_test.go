package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathTrace(t *testing.T) {
	co := NewCheckout("c1", "u1")
	for _, s := range []State{StateStockChecking, StateReserving, StateAuthorizingPayment, StatePersisting, StateCompleted} {
		require.NoError(t, co.Advance(s))
	}
	assert.Equal(t, []State{
		StateIdle, StateStockChecking, StateReserving, StateAuthorizingPayment, StatePersisting, StateCompleted,
	}, co.States())
	assert.Nil(t, co.Failure)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	co := NewCheckout("c1", "u1")
	err := co.Advance(StateReserving)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateIdle, co.State)
	assert.Empty(t, co.Trace)

	assert.ErrorIs(t, co.Advance(StateFailed), ErrIllegalTransition)

	assert.False(t, CanTransition(StateCompleted, StateFailed))
	assert.False(t, CanTransition(StateFailed, StateIdle))
	assert.False(t, CanTransition(StatePersisting, StateStockChecking))
	assert.True(t, CanTransition(StateReserving, StateFailed))
}

func TestFailRecordsStateAndKind(t *testing.T) {
	co := NewCheckout("c1", "u1")
	require.NoError(t, co.Advance(StateStockChecking))
	require.NoError(t, co.Advance(StateReserving))

	cause := errors.New("boom")
	f := co.Fail(KindInsufficientStock, "short", cause)
	assert.Equal(t, StateFailed, co.State)
	assert.Equal(t, StateReserving, f.State)
	assert.ErrorIs(t, f, cause)
	assert.Equal(t, KindInsufficientStock, KindOf(f))
	assert.Equal(t, KindUnknown, KindOf(cause))

	// 终止后再次失败保留第一次的结果
	again := co.Fail(KindUnknown, "late", nil)
	assert.Same(t, f, again)
	assert.ErrorIs(t, co.Advance(StateCompleted), ErrIllegalTransition)
}

func TestTransitionsRecordedByMachine(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	co := NewCheckout("c1", "u1")
	co.now = func() time.Time { return at }

	require.NoError(t, co.Advance(StateStockChecking))
	f := co.Fail(KindValidation, "price changed", nil)

	assert.Same(t, f, co.Failure)
	assert.Equal(t, StateFailed, State(co.fsm.Current()))
	assert.Equal(t, []Step{
		{From: StateIdle, To: StateStockChecking, At: at},
		{From: StateStockChecking, To: StateFailed, At: at},
	}, co.Trace)
}

func TestTotalFromLines(t *testing.T) {
	lines := []LineItem{{ProductID: "p1", Price: 1000, Quantity: 2}, {ProductID: "p2", Price: 350, Quantity: 3}}
	assert.EqualValues(t, 3050, Total(lines))
}
