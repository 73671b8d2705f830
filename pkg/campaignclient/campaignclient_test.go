package campaignclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamfund/donorpay/pkg/currency"
	"github.com/streamfund/donorpay/pkg/types"
)

func TestGetCampaign(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/42", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(&types.Campaign{
			ID:            42,
			Title:         "Charity stream",
			Goal:          "1000.00",
			Collected:     "250.00",
			WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		})
	}))
	defer server.Close()

	client := New(server.URL)
	campaign, err := client.GetCampaign(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), campaign.ID)
	assert.Equal(t, "Charity stream", campaign.Title)
	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", campaign.WalletAddress)
}

func TestGetCampaignNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.GetCampaign(context.Background(), 42)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestListDonations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/42/donations", r.URL.Path)
		json.NewEncoder(w).Encode([]types.Donation{
			{ID: 1, Name: "alice", Amount: "25", Currency: currency.ETH, TxHash: "0xaaa"},
			{ID: 2, Name: "bob", Amount: "10", Currency: currency.USDT, TxHash: "0xbbb"},
		})
	}))
	defer server.Close()

	client := New(server.URL)
	donations, err := client.ListDonations(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, donations, 2)
	assert.Equal(t, "alice", donations[0].Name)
	assert.Equal(t, currency.USDT, donations[1].Currency)
}

func TestListDonationsSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]types.Donation{})
	}))
	defer server.Close()

	client := New(server.URL, WithAccessToken("tok-1"))
	_, err := client.ListDonations(context.Background(), 42)
	require.NoError(t, err)
}

func TestRecordDonation(t *testing.T) {
	donateReq := &types.DonateRequest{
		Name:          "alice",
		Message:       "gl",
		Amount:        "25",
		Currency:      currency.ETH,
		TxHash:        "0xabc",
		CorrelationID: "corr-1",
	}

	tests := []struct {
		name            string
		statusCode      int
		expectError     bool
		expectRetryable bool
	}{
		{name: "created", statusCode: http.StatusCreated},
		{name: "ok", statusCode: http.StatusOK},
		{name: "conflict is idempotent success", statusCode: http.StatusConflict},
		{name: "bad request is not retryable", statusCode: http.StatusBadRequest, expectError: true},
		{name: "server error is retryable", statusCode: http.StatusInternalServerError, expectError: true, expectRetryable: true},
		{name: "throttled is retryable", statusCode: http.StatusTooManyRequests, expectError: true, expectRetryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/campaigns/42/donate", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var got types.DonateRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				assert.Equal(t, "corr-1", got.CorrelationID)
				assert.Equal(t, "0xabc", got.TxHash)

				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := New(server.URL)
			err := client.RecordDonation(context.Background(), 42, donateReq)

			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			var recErr *RecordingError
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, tt.expectRetryable, recErr.Retryable)
		})
	}
}

func TestRecordDonationConflictCreatesNoDuplicate(t *testing.T) {
	// A resend of the same correlation id must result in exactly one
	// persisted record: the backend answers 409, the client reports success.
	var records int32
	seen := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got types.DonateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if seen[got.CorrelationID] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		seen[got.CorrelationID] = true
		atomic.AddInt32(&records, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(server.URL)
	req := &types.DonateRequest{Amount: "25", Currency: currency.ETH, TxHash: "0xabc", CorrelationID: "corr-1"}

	require.NoError(t, client.RecordDonation(context.Background(), 42, req))
	require.NoError(t, client.RecordDonation(context.Background(), 42, req))
	assert.Equal(t, int32(1), atomic.LoadInt32(&records))
}

func TestRecordDonationRequiresHashAndCorrelation(t *testing.T) {
	client := New("http://localhost:0")

	err := client.RecordDonation(context.Background(), 42, &types.DonateRequest{TxHash: "0xabc"})
	var recErr *RecordingError
	require.ErrorAs(t, err, &recErr)
	assert.False(t, recErr.Retryable)

	err = client.RecordDonation(context.Background(), 42, &types.DonateRequest{CorrelationID: "c"})
	require.ErrorAs(t, err, &recErr)
	assert.False(t, recErr.Retryable)
}

func TestRecordDonationNetworkFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := New(server.URL)
	err := client.RecordDonation(context.Background(), 42,
		&types.DonateRequest{Amount: "1", TxHash: "0xabc", CorrelationID: "c"})

	var recErr *RecordingError
	require.ErrorAs(t, err, &recErr)
	assert.True(t, recErr.Retryable)
	assert.False(t, errors.Is(err, context.Canceled))
}
