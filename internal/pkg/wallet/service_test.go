package wallet

import (
	"context"
	"math"
	"testing"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
	"github.com/ManuelReschke/Paywall/internal/pkg/database"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *repository.Factory) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.Create(&models.User{UUID: "u1", Coin: 10}).Error)
	factory := repository.NewFactory(db)
	return NewService(factory, entitlements.NewResolver(factory.GetVipTierRepository(), nil, 0)), factory
}

func TestTopUp(t *testing.T) {
	svc, factory := newTestService(t)
	ctx := context.Background()

	res, err := svc.TopUp(ctx, "u1", 90)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Balance)
	assert.NotZero(t, res.EntryID)
	assert.NotEmpty(t, res.TxRef)

	sum, err := factory.GetLedgerStore().SumByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), sum)

	_, err = svc.TopUp(ctx, "u1", 0)
	assert.ErrorIs(t, err, ErrInvalidTopUp)
	_, err = svc.TopUp(ctx, " ", 5)
	assert.ErrorIs(t, err, ErrInvalidTopUp)

	_, err = svc.TopUp(ctx, "ghost", 5)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	sum, err = factory.GetLedgerStore().SumByUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Zero(t, sum, "failed top-up leaves no ledger entry")
}

func TestSummaryAndHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.TopUp(ctx, "u1", int64(i+1))
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(16), summary.Balance)
	assert.False(t, summary.Overlay.Any())

	_, err = svc.Summary(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	history, err := svc.History(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), history.Total)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, int64(3), history.Entries[0].Delta)

	history, err = svc.History(ctx, "u1", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, history.Page)
	assert.Equal(t, MaxPageSize, history.PageSize)
	assert.Len(t, history.Entries, 3)

	history, err = svc.History(ctx, "nobody", 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, history.Entries)
	assert.Empty(t, history.Entries)
}

func TestHistoryClampsHugePage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.TopUp(ctx, "u1", 5)
	require.NoError(t, err)

	for _, page := range []int{math.MaxInt, math.MaxInt / 2, MaxPage + 1} {
		history, err := svc.History(ctx, "u1", page, MaxPageSize)
		require.NoError(t, err, "page=%d", page)
		assert.Equal(t, MaxPage, history.Page)
		assert.Equal(t, int64(1), history.Total)
		assert.Empty(t, history.Entries)
	}
}
