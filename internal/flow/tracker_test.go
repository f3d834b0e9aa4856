package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mailstore-bot/internal/errors"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTracker(NewMemoryStorage(), Config{MinDeposit: 2000}, nil)
}

func TestDepositFlowFillsInOrder(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	err := tracker.Begin(ctx, 1, KindDeposit, map[Field]string{FieldMethod: "bkash"})
	require.NoError(t, err)

	inputs := []struct {
		text  string
		field Field
	}{
		{"01700000000", FieldNumber},
		{"50", FieldAmount},
		{"TX12345", FieldTxID},
	}

	for _, step := range inputs {
		f, consumed, err := tracker.Advance(ctx, 1, step.text)
		require.NoError(t, err)
		require.True(t, consumed)
		assert.Equal(t, KindDeposit, f.Kind)
	}

	done, err := tracker.Complete(ctx, 1, KindDeposit)
	require.NoError(t, err)
	assert.Equal(t, "bkash", done.Get(FieldMethod))
	assert.Equal(t, "01700000000", done.Get(FieldNumber))
	assert.Equal(t, "50", done.Get(FieldAmount))
	assert.Equal(t, "TX12345", done.Get(FieldTxID))

	// Completing consumes the flow.
	_, err = tracker.Complete(ctx, 1, KindDeposit)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceWithoutOpenFlow(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	f, consumed, err := tracker.Advance(ctx, 7, "hello")
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Nil(t, f)
}

func TestBeginRejectsDuplicateKind(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Begin(ctx, 1, KindBroadcast, nil))
	err := tracker.Begin(ctx, 1, KindBroadcast, nil)
	assert.ErrorIs(t, err, ErrFlowExists)
}

func TestAmountValidation(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Begin(ctx, 1, KindDeposit, map[Field]string{
		FieldMethod: "nagad",
		FieldNumber: "01500000000",
	}))

	// Below the minimum deposit.
	_, consumed, err := tracker.Advance(ctx, 1, "5")
	require.Error(t, err)
	assert.True(t, consumed)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)

	// The flow still waits for a valid amount.
	f, consumed, err := tracker.Advance(ctx, 1, "20")
	require.NoError(t, err)
	require.True(t, consumed)
	assert.Equal(t, "20", f.Get(FieldAmount))
}

func TestCountValidation(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Begin(ctx, 1, KindMultiPurchase, map[Field]string{
		FieldService: "Gmail (6-12 Hours)",
	}))

	_, consumed, err := tracker.Advance(ctx, 1, "zero")
	require.Error(t, err)
	assert.True(t, consumed)

	_, consumed, err = tracker.Advance(ctx, 1, "0")
	require.Error(t, err)
	assert.True(t, consumed)

	f, consumed, err := tracker.Advance(ctx, 1, "10")
	require.NoError(t, err)
	require.True(t, consumed)
	assert.True(t, f.Filled())
}

func TestCompleteRefusesUnfilledFlow(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Begin(ctx, 1, KindDeposit, map[Field]string{FieldMethod: "bkash"}))

	_, err := tracker.Complete(ctx, 1, KindDeposit)
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestCancelClearsEverything(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Begin(ctx, 1, KindDeposit, map[Field]string{FieldMethod: "bkash"}))
	require.NoError(t, tracker.Cancel(ctx, 1))

	_, consumed, err := tracker.Advance(ctx, 1, "anything")
	require.NoError(t, err)
	assert.False(t, consumed)

	// Cancel with nothing open is fine.
	require.NoError(t, tracker.Cancel(ctx, 1))
}

func TestFlowsAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Begin(ctx, 1, KindSetSupport, nil))
	require.NoError(t, tracker.Begin(ctx, 2, KindSetTutorial, nil))

	f1, consumed, err := tracker.Advance(ctx, 1, "helpdesk")
	require.NoError(t, err)
	require.True(t, consumed)
	assert.Equal(t, KindSetSupport, f1.Kind)

	f2, consumed, err := tracker.Advance(ctx, 2, "https://example.com/guide")
	require.NoError(t, err)
	require.True(t, consumed)
	assert.Equal(t, KindSetTutorial, f2.Kind)
}
