package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/models"
)

func newTestTokenStore(t *testing.T, rm *fakeRepoManager) *TokenStore {
	t.Helper()
	db, _ := newSQLMockDB(t)
	return NewTokenStore(db, rm, testConfig())
}

func TestTokenStore_MintAndResolve(t *testing.T) {
	rm := newFakeRepoManager()
	ts := newTestTokenStore(t, rm)
	ctx := context.Background()
	owner := "user-7"

	key, err := ts.MintToken(ctx, "tag-123", models.ModeService, &owner)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	tok, err := ts.Resolve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "tag-123", tok.SubjectID)
	assert.Equal(t, models.ModeService, tok.Mode)
	require.NotNil(t, tok.OwnerID)
	assert.Equal(t, owner, *tok.OwnerID)
	assert.False(t, tok.Consumed)
	assert.Equal(t, 30*time.Minute, tok.ExpiresAt.Sub(tok.CreatedAt))
}

func TestTokenStore_MintFailsClosed(t *testing.T) {
	rm := newFakeRepoManager()
	rm.ot.createErr = errStore
	ts := newTestTokenStore(t, rm)

	key, err := ts.MintToken(context.Background(), "tag", models.ModeGuest, nil)
	require.ErrorIs(t, err, errStore)
	assert.Empty(t, key)
}

func TestTokenStore_Resolve_NotFound(t *testing.T) {
	ts := newTestTokenStore(t, newFakeRepoManager())

	_, err := ts.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = ts.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTokenStore_Resolve_ReturnsExpiredAsData(t *testing.T) {
	ts := newTestTokenStore(t, newFakeRepoManager())
	ctx := context.Background()
	ts.now = func() time.Time { return time.Now().Add(-time.Hour) }

	key, err := ts.MintToken(ctx, "tag", models.ModeService, nil)
	require.NoError(t, err)

	ts.now = time.Now
	tok, err := ts.Resolve(ctx, key)
	require.NoError(t, err)
	assert.True(t, tok.Expired(time.Now()))
}

func TestTokenStore_ConsumeIsTerminal(t *testing.T) {
	ts := newTestTokenStore(t, newFakeRepoManager())
	ctx := context.Background()

	key, err := ts.MintToken(ctx, "tag", models.ModeService, nil)
	require.NoError(t, err)

	ok, err := ts.MarkConsumed(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.MarkConsumed(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		st, err := ts.CheckConsumed(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, &models.TokenStatus{SubjectID: "tag", Consumed: true}, st)
	}
}

func TestTokenStore_MarkConsumed_Error(t *testing.T) {
	rm := newFakeRepoManager()
	rm.ot.markErr = errStore
	ts := newTestTokenStore(t, rm)

	_, err := ts.MarkConsumed(context.Background(), "k")
	assert.ErrorIs(t, err, errStore)
}

func TestTokenStore_Authorize(t *testing.T) {
	ts := newTestTokenStore(t, newFakeRepoManager())
	ctx := context.Background()

	key, err := ts.MintToken(ctx, "tag", models.ModeService, nil)
	require.NoError(t, err)

	tok, err := ts.Authorize(ctx, key, true)
	require.NoError(t, err)
	assert.Equal(t, "tag", tok.SubjectID)

	_, err = ts.MarkConsumed(ctx, key)
	require.NoError(t, err)

	_, err = ts.Authorize(ctx, key, true)
	assert.ErrorIs(t, err, common.ErrorAlreadyConsumed)

	_, err = ts.Authorize(ctx, key, false)
	assert.NoError(t, err, "reads are allowed after consumption")

	ts.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	_, err = ts.Authorize(ctx, key, false)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestTokenStore_Authorize_GuestIsReadOnly(t *testing.T) {
	ts := newTestTokenStore(t, newFakeRepoManager())
	ctx := context.Background()

	key, err := ts.MintToken(ctx, "tag", models.ModeGuest, nil)
	require.NoError(t, err)

	tok, err := ts.Authorize(ctx, key, false)
	require.NoError(t, err)
	assert.Equal(t, models.ModeGuest, tok.Mode)

	_, err = ts.Authorize(ctx, key, true)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
