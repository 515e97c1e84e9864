package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/config"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

type testEnv struct {
	repos       *repository.Repositories
	catalog     *catalog.Catalog
	cfg         config.RewardConfig
	log         *logrus.Logger
	hook        *logtest.Hook
	notify      NotificationService
	bracket     BracketService
	badges      BadgeService
	referral    ReferralService
	fulfillment FulfillmentService
	accounts    AccountService
}

func defaultRewardConfig() config.RewardConfig {
	return config.RewardConfig{
		MinimumReferralOrderAmount:  100,
		MaxReferralsPerCustomer:     10,
		ReferralFreeDeliveryCredits: 3,
		SpinsPerCycle:               1,
		Timezone:                    "UTC",
	}
}

func newTestEnv(t *testing.T, mutate ...func(*config.RewardConfig)) *testEnv {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	cfg := defaultRewardConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	log, hook := logtest.NewNullLogger()
	repos := repository.NewMemoryRepositories()
	notify := NewNotificationService(repos.Notifications, log)

	env := &testEnv{repos: repos, catalog: cat, cfg: cfg, log: log, hook: hook, notify: notify}
	env.bracket = NewBracketService(repos, cat, cfg.SpinsPerCycle, log)
	env.badges = NewBadgeService(repos, cat, time.UTC, notify, log)
	env.referral = NewReferralService(repos, cfg, notify, log)
	env.fulfillment = NewFulfillmentService(env.bracket, env.badges, env.referral, notify, log)
	env.accounts = NewAccountService(repos, log)
	return env
}

// purchase records amount for uid through the bracket tracker with a generated order ref.
func (e *testEnv) purchase(t *testing.T, uid string, amount int64, at time.Time) *BracketOutcome {
	t.Helper()
	out, err := e.bracket.RecordPurchase(context.Background(), uid, "", amount, at)
	require.NoError(t, err)
	return out
}

// fixedDraw always returns the same draw in [0,1).
type fixedDraw float64

func (f fixedDraw) Float64() float64 { return float64(f) }

var baseTime = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
