package intent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamfund/donorpay/pkg/currency"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "intents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	i := New(7, "10", currency.USDT, "bob", "hi")
	i.Route = RouteDeepLink
	i.WalletApp = "metamask"
	require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
	require.NoError(t, i.TransitionTo(StatusAwaitingRedirectReturn))
	require.NoError(t, store.Save(ctx, i))

	loaded, err := store.Load(ctx, i.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, i.CorrelationID, loaded.CorrelationID)
	assert.Equal(t, i.CampaignID, loaded.CampaignID)
	assert.Equal(t, i.Amount, loaded.Amount)
	assert.Equal(t, i.Currency, loaded.Currency)
	assert.Equal(t, i.DonorName, loaded.DonorName)
	assert.Equal(t, RouteDeepLink, loaded.Route)
	assert.Equal(t, "metamask", loaded.WalletApp)
	assert.Equal(t, StatusAwaitingRedirectReturn, loaded.Status)
	assert.Equal(t, i.CreatedAt.UnixMilli(), loaded.CreatedAt.UnixMilli())
	assert.Equal(t, i.ExpiresAt.UnixMilli(), loaded.ExpiresAt.UnixMilli())
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "intents.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)

	i := New(7, "10", currency.USDT, "", "")
	i.Route = RouteDeepLink
	require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
	require.NoError(t, i.TransitionTo(StatusAwaitingRedirectReturn))
	require.NoError(t, store.Save(ctx, i))
	require.NoError(t, store.Close())

	// The wallet app hand-off may destroy the host process; the intent must
	// still be there when a new process opens the store.
	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.LoadAwaitingReturn(ctx)
	require.NoError(t, err)
	assert.Equal(t, i.CorrelationID, pending.CorrelationID)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	i := New(7, "10", currency.ETH, "", "")
	i.Route = RouteInjected
	require.NoError(t, i.TransitionTo(StatusAwaitingSignature))
	require.NoError(t, store.Save(ctx, i))

	require.NoError(t, i.TransitionTo(StatusSubmitted))
	i.TxHash = "0xfeed"
	require.NoError(t, store.Save(ctx, i))

	loaded, err := store.Load(ctx, i.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, loaded.Status)
	assert.Equal(t, "0xfeed", loaded.TxHash)
}

func TestSQLiteStoreLoadActive(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.LoadActive(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	done := New(1, "1", currency.ETH, "", "")
	done.Route = RouteInjected
	require.NoError(t, done.TransitionTo(StatusAwaitingSignature))
	require.NoError(t, done.TransitionTo(StatusSubmitted))
	done.TxHash = "0x1"
	require.NoError(t, done.TransitionTo(StatusRecorded))
	require.NoError(t, store.Save(ctx, done))

	// Terminal intents are not active
	_, err = store.LoadActive(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	live := New(1, "2", currency.ETH, "", "")
	live.Route = RouteInjected
	require.NoError(t, live.TransitionTo(StatusAwaitingSignature))
	require.NoError(t, store.Save(ctx, live))

	active, err := store.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, live.CorrelationID, active.CorrelationID)
}

func TestOpenSQLiteStoreEmptyPath(t *testing.T) {
	_, err := OpenSQLiteStore("  ")
	assert.Error(t, err)
}
