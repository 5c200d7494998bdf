package privacypool_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/veilcash/veild/internal/core/ports"
	"github.com/veilcash/veild/internal/infrastructure/privacypool"
)

const ownerAddress = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

type stubMessageSigner struct {
	calls int32
}

func (s *stubMessageSigner) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	return append([]byte("signed:"), message...), nil
}

func newTestClient(t *testing.T, baseURL string) (ports.PrivacyPool, *stubMessageSigner) {
	signer := &stubMessageSigner{}
	pool, err := privacypool.NewClient(privacypool.Opts{
		BaseURL:       baseURL,
		OwnerAddress:  ownerAddress,
		MessageSigner: signer,
		MaxAttempts:   3,
		BaseBackoff:   time.Millisecond,
	})
	require.NoError(t, err)
	return pool, signer
}

func TestGetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/balance", r.URL.Path)
		require.Equal(t, ownerAddress, r.Header.Get("X-Veil-Account"))
		require.NotEmpty(t, r.Header.Get("X-Veil-Credential"))
		json.NewEncoder(w).Encode(map[string]uint64{"amount": 3028500000})
	}))
	defer server.Close()

	pool, _ := newTestClient(t, server.URL)
	ctx := context.Background()
	require.NoError(t, pool.EnsureInitialized(ctx))

	balance, err := pool.GetBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3028500000), balance)

	// no intervening deposit/withdraw, same value again.
	balance, err = pool.GetBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3028500000), balance)
}

func TestCredentialCachedAcrossOperations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]uint64{"amount": 0})
	}))
	defer server.Close()

	pool, signer := newTestClient(t, server.URL)
	ctx := context.Background()

	require.NoError(t, pool.EnsureInitialized(ctx))
	require.NoError(t, pool.EnsureInitialized(ctx))
	_, err := pool.GetBalance(ctx)
	require.NoError(t, err)

	require.Equal(t, int32(1), atomic.LoadInt32(&signer.calls))
}

func TestOperationsRequireInitialization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]uint64{"amount": 0})
	}))
	defer server.Close()

	pool, _ := newTestClient(t, server.URL)
	_, err := pool.GetBalance(context.Background())
	require.ErrorIs(t, err, privacypool.ErrNotInitialized)
}

func TestTransientUpstreamErrorsAreRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"signature": "depositsig"})
	}))
	defer server.Close()

	pool, _ := newTestClient(t, server.URL)
	ctx := context.Background()
	require.NoError(t, pool.EnsureInitialized(ctx))

	sig, err := pool.Deposit(ctx, 1000)
	require.NoError(t, err)
	require.Equal(t, "depositsig", sig)
	require.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	pool, _ := newTestClient(t, server.URL)
	ctx := context.Background()
	require.NoError(t, pool.EnsureInitialized(ctx))

	_, err := pool.GetBalance(ctx)
	require.ErrorIs(t, err, privacypool.ErrRetriesExhausted)
}

func TestPoolErrorIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient shielded balance"})
	}))
	defer server.Close()

	pool, _ := newTestClient(t, server.URL)
	ctx := context.Background()
	require.NoError(t, pool.EnsureInitialized(ctx))

	_, err := pool.Withdraw(ctx, 1000, "recipient")
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient shielded balance")
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
