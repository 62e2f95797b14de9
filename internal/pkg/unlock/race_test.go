package unlock

import (
	"context"
	"testing"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleGrants answers ownership reads as if a concurrent purchase had not
// committed yet. Writes still hit the real table and its unique key.
type staleGrants struct {
	repository.EntitlementStore
}

func (staleGrants) IsGranted(context.Context, string, models.ContentType, uint64, time.Time) (bool, error) {
	return false, nil
}

func (staleGrants) ListGranted(context.Context, string, models.ContentType, uint64, time.Time) ([]uint64, error) {
	return nil, nil
}

type staleStore struct {
	*repository.Factory
}

func (s staleStore) Transaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return s.Factory.Transaction(ctx, func(repos *repository.Repositories) error {
		repos.Entitlement = staleGrants{repos.Entitlement}
		return fn(repos)
	})
}

func (e *testEnv) staleService() *Service {
	resolver := entitlements.NewResolver(e.factory.GetVipTierRepository(), nil, 0)
	svc := NewService(staleStore{e.factory}, resolver, DefaultConfig())
	svc.SetClock(func() time.Time { return e.now })
	return svc
}

func TestUnlockLosingGrantRaceSkipsDebit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "u1", 100)
	require.NoError(t, env.db.Create(&models.ComicChapter{ID: 1, MangaID: 1, Coin: 30}).Error)

	first := env.svc.Unlock(ctx, "u1", models.ContentComicChapter, 1)
	require.NoError(t, first.Err)
	require.Equal(t, int64(30), first.Charged)
	ledgerBefore := len(env.ledger(t, "u1"))

	res := env.staleService().Unlock(ctx, "u1", models.ContentComicChapter, 1)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusUnlocked, res.Status)
	assert.True(t, res.AlreadyOwned)
	assert.Zero(t, res.Charged)
	assert.Nil(t, res.Balance)
	assert.Empty(t, res.TxRef)

	assert.Equal(t, int64(70), env.balance(t, "u1"))
	assert.Equal(t, int64(1), env.grants(t, "u1"))
	assert.Len(t, env.ledger(t, "u1"), ledgerBefore)
	env.assertLedgerMatches(t, "u1", 100)
}

func TestUnlockLosingGrantRaceOnVideoKeepsExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "u1", 100)
	require.NoError(t, env.db.Create(&models.LongVideo{ID: 1, GoldRequired: 10}).Error)

	require.Equal(t, StatusUnlocked, env.svc.Unlock(ctx, "u1", models.ContentLongVideo, 1).Status)
	before, err := env.factory.GetEntitlementStore().Find(ctx, "u1", models.ContentLongVideo, 1)
	require.NoError(t, err)

	env.now = env.now.Add(time.Hour)
	res := env.staleService().Unlock(ctx, "u1", models.ContentLongVideo, 1)
	require.NoError(t, res.Err)
	assert.True(t, res.AlreadyOwned)
	assert.Equal(t, int64(90), env.balance(t, "u1"))

	after, err := env.factory.GetEntitlementStore().Find(ctx, "u1", models.ContentLongVideo, 1)
	require.NoError(t, err)
	require.NotNil(t, after.ExpiresAt)
	assert.True(t, before.ExpiresAt.Equal(*after.ExpiresAt), "a valid grant is not renewed")
	assert.Equal(t, before.TxRef, after.TxRef)
}

func TestUnlockWholeLosingGrantRaceRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "u1", 100)
	seedComic(t, env, 1, map[uint64]int64{1: 10, 2: 20, 3: 30})

	require.Equal(t, StatusUnlocked, env.svc.Unlock(ctx, "u1", models.ContentComicChapter, 2).Status)
	require.Equal(t, int64(80), env.balance(t, "u1"))
	ledgerBefore := len(env.ledger(t, "u1"))

	res := env.staleService().UnlockWhole(ctx, "u1", models.ContentComicChapter, 1)
	assert.Equal(t, StatusTransientFailure, res.Status)
	assert.ErrorIs(t, res.Err, ErrGrantConflict)
	assert.True(t, IsRetryable(res.Err))
	assert.Zero(t, res.UnlockedCount)
	assert.Nil(t, res.Balance)

	assert.Equal(t, int64(80), env.balance(t, "u1"))
	assert.Equal(t, int64(1), env.grants(t, "u1"), "no partial grants")
	assert.Len(t, env.ledger(t, "u1"), ledgerBefore)

	retry := env.svc.UnlockWhole(ctx, "u1", models.ContentComicChapter, 1)
	require.NoError(t, retry.Err)
	assert.Equal(t, StatusUnlocked, retry.Status)
	assert.Equal(t, []uint64{1, 3}, retry.UnlockedIDs)
	assert.Equal(t, int64(32), retry.PaidAmount)
}