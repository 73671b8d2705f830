package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamfund/donorpay/pkg/currency"
)

func newTestIntent() *DonationIntent {
	return New(42, "25", currency.ETH, "alice", "good luck")
}

func TestNewIntent(t *testing.T) {
	i := newTestIntent()

	assert.NotEmpty(t, i.CorrelationID)
	assert.Equal(t, StatusDraft, i.Status)
	assert.Equal(t, int64(42), i.CampaignID)
	assert.True(t, i.ExpiresAt.After(i.CreatedAt))

	// Each attempt gets its own correlation id
	other := newTestIntent()
	assert.NotEqual(t, i.CorrelationID, other.CorrelationID)
}

func TestTransitions(t *testing.T) {
	t.Run("injected happy path", func(t *testing.T) {
		i := newTestIntent()
		require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
		require.NoError(t, i.TransitionTo(StatusSubmitted))
		i.TxHash = "0xabc"
		require.NoError(t, i.TransitionTo(StatusRecorded))
		assert.True(t, i.Terminal())
	})

	t.Run("redirect happy path", func(t *testing.T) {
		i := newTestIntent()
		require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
		require.NoError(t, i.TransitionTo(StatusAwaitingRedirectReturn))
		assert.True(t, i.Active())
		require.NoError(t, i.TransitionTo(StatusSubmitted))
	})

	t.Run("recorded requires a transaction hash", func(t *testing.T) {
		i := newTestIntent()
		require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
		require.NoError(t, i.TransitionTo(StatusSubmitted))
		err := i.TransitionTo(StatusRecorded)
		assert.ErrorContains(t, err, "without a transaction hash")
	})

	t.Run("recorded is immutable", func(t *testing.T) {
		i := newTestIntent()
		require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
		require.NoError(t, i.TransitionTo(StatusSubmitted))
		i.TxHash = "0xabc"
		require.NoError(t, i.TransitionTo(StatusRecorded))
		assert.Error(t, i.TransitionTo(StatusFailed))
		assert.Error(t, i.TransitionTo(StatusSubmitted))
	})

	t.Run("draft cannot jump to submitted", func(t *testing.T) {
		i := newTestIntent()
		assert.Error(t, i.TransitionTo(StatusSubmitted))
	})

	t.Run("submitted cannot fail, funds already moved", func(t *testing.T) {
		i := newTestIntent()
		require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
		require.NoError(t, i.TransitionTo(StatusSubmitted))
		assert.Error(t, i.TransitionTo(StatusFailed))
	})
}

func TestExpired(t *testing.T) {
	i := newTestIntent()
	assert.False(t, i.Expired(time.Now()))
	assert.True(t, i.Expired(i.ExpiresAt.Add(time.Second)))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	i := newTestIntent()
	require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
	require.NoError(t, store.Save(ctx, i))

	loaded, err := store.Load(ctx, i.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, i.CorrelationID, loaded.CorrelationID)

	active, err := store.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, i.CorrelationID, active.CorrelationID)

	_, err = store.LoadAwaitingReturn(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, i.TransitionTo(StatusAwaitingRedirectReturn))
	require.NoError(t, store.Save(ctx, i))

	pending, err := store.LoadAwaitingReturn(ctx)
	require.NoError(t, err)
	assert.Equal(t, i.CorrelationID, pending.CorrelationID)

	require.NoError(t, store.Delete(ctx, i.CorrelationID))
	_, err = store.Load(ctx, i.CorrelationID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is not an error
	require.NoError(t, store.Delete(ctx, i.CorrelationID))
}
