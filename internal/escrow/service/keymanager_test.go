package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/internal/escrow/domain"
)

func TestEnsureKeyPair_ConcurrentCallersShareOneKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subID := "sub-ensure"

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := env.Keys.EnsureKeyPair(ctx, domain.KeyTypeGroup, &subID)
			ids[i], errs[i] = key.ID, err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids[1:] {
		require.Equal(t, ids[0], id, "all callers must land on the same active key")
	}
}

func TestRotateKey_OldKeyDecryptsDuringGrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subID := "sub-rotate"

	original, err := env.Keys.EnsureKeyPair(ctx, domain.KeyTypeGroup, &subID)
	require.NoError(t, err)

	replacement, err := env.Keys.RotateKey(ctx, "admin-1", domain.KeyTypeGroup, &subID)
	require.NoError(t, err)
	require.NotEqual(t, original.ID, replacement.ID)

	// Encryption is served by the replacement only.
	_, active, err := env.Keys.GetPublicKey(ctx, domain.KeyTypeGroup, &subID)
	require.NoError(t, err)
	require.Equal(t, replacement.ID, active.ID)

	// The rotated key still decrypts inside the grace window.
	_, err = env.Keys.GetPrivateKey(ctx, original.ID)
	require.NoError(t, err)
}

func TestGetPrivateKey_RejectsAfterGrace(t *testing.T) {
	env := newTestEnv(t)
	env.Keys.GracePeriod = time.Millisecond
	ctx := context.Background()
	subID := "sub-grace"

	original, err := env.Keys.EnsureKeyPair(ctx, domain.KeyTypeGroup, &subID)
	require.NoError(t, err)
	_, err = env.Keys.RotateKey(ctx, "admin-1", domain.KeyTypeGroup, &subID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = env.Keys.GetPrivateKey(ctx, original.ID)
	require.ErrorIs(t, err, ErrKeyGraceOver)
}

func TestRotateKey_NoActiveKey(t *testing.T) {
	env := newTestEnv(t)
	subID := "sub-missing"

	_, err := env.Keys.RotateKey(context.Background(), "admin-1", domain.KeyTypeGroup, &subID)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestListKeysRequiringRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	soonID := "sub-expiring"
	env.Keys.KeyExpiry = time.Hour
	_, err := env.Keys.EnsureKeyPair(ctx, domain.KeyTypeGroup, &soonID)
	require.NoError(t, err)

	laterID := "sub-fresh"
	env.Keys.KeyExpiry = 365 * 24 * time.Hour
	_, err = env.Keys.EnsureKeyPair(ctx, domain.KeyTypeGroup, &laterID)
	require.NoError(t, err)

	due, err := env.Keys.ListKeysRequiringRotation(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, soonID, *due[0].RelatedID)
}
