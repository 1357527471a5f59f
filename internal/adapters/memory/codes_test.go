// internal/adapters/memory/codes_test.go
package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

func TestCodeStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewCodeStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveCode(ctx, "k", []byte("h"), time.Minute))
	n, err := store.IncrementAttempts(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	hash, attempts, err := store.LoadCode(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "h", string(hash))
	require.Equal(t, 1, attempts)

	now = now.Add(time.Minute)
	_, _, err = store.LoadCode(ctx, "k")
	require.ErrorIs(t, err, domain.ErrOtpExpired)
	_, err = store.IncrementAttempts(ctx, "k")
	require.ErrorIs(t, err, domain.ErrOtpExpired)
}

func TestCodeStore_SaveSweepsUnreadCodes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewCodeStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveCode(ctx, "abandoned", []byte("h1"), time.Minute))
	require.NoError(t, store.SaveCode(ctx, "recent", []byte("h2"), 10*time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.SaveCode(ctx, "fresh", []byte("h3"), time.Minute))

	require.Len(t, store.codes, 2)
	require.NotContains(t, store.codes, "abandoned")
	require.Contains(t, store.codes, "recent")
}

func TestTokenDenylist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	deny := NewTokenDenylist()
	deny.now = func() time.Time { return now }

	revoked, err := deny.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, deny.Revoke(ctx, "jti", time.Hour))
	revoked, _ = deny.IsRevoked(ctx, "jti")
	require.True(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = deny.IsRevoked(ctx, "jti")
	require.False(t, revoked)
}
