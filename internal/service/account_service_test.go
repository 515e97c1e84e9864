package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyyama/storefront-rewards/internal/model"
)

func TestRedeemPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.purchase(t, "u1", 1000, baseTime)
	_, err := env.badges.Evaluate(ctx, "u1", baseTime) // first_order pays 50
	require.NoError(t, err)

	_, err = env.accounts.RedeemPoints(ctx, "u1", 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.accounts.RedeemPoints(ctx, "u1", 51, "")
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	acc, err := env.accounts.RedeemPoints(ctx, "u1", 30, "checkout discount")
	require.NoError(t, err)
	assert.Equal(t, int64(20), acc.PointsAvailable())

	_, err = env.accounts.RedeemPoints(ctx, "nobody", 1, "")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestConcurrentRedemptionsNeverGoNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.purchase(t, "u1", 1000, baseTime)
	_, err := env.badges.Evaluate(ctx, "u1", baseTime)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.accounts.RedeemPoints(ctx, "u1", 20, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 2, ok)

	acc, err := env.repos.Accounts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), acc.PointsAvailable())
}

func TestRedeemCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.referral.CreateLink(ctx, "alice", "bob")
	require.NoError(t, err)
	out, err := env.referral.RecordQualifyingPurchase(ctx, "bob", 500, baseTime)
	require.NoError(t, err)
	require.NotNil(t, out)
	code := out.CreditCodes[0]

	assert.ErrorIs(t, env.accounts.RedeemCredit(ctx, "bob", code), ErrNotFound)
	require.NoError(t, env.accounts.RedeemCredit(ctx, "alice", code))
	assert.ErrorIs(t, env.accounts.RedeemCredit(ctx, "alice", code), ErrNotFound)

	snap, err := env.accounts.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, snap.Credits, 2)
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.fulfillment.PurchaseCompleted(ctx, PurchaseEvent{UID: "u1", OrderRef: "o-1", Amount: 1200, PurchasedAt: baseTime})
	require.NoError(t, err)

	snap, err := env.accounts.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, snap.CycleSize)
	assert.Equal(t, 1, snap.Account.CurrentCycleReceipts)
	assert.Equal(t, int64(1200), snap.Account.CurrentCycleSpend)
	require.Len(t, snap.Badges, 1)
	assert.Equal(t, "first_order", snap.Badges[0].BadgeCode)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, model.TransactionKindBadgeBonus, snap.Transactions[0].Kind)
	assert.Zero(t, snap.Spins.SpinsAvailable)
}
