package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, int64(100), cfg.Rewards.MinimumReferralOrderAmount)
	assert.Equal(t, 10, cfg.Rewards.MaxReferralsPerCustomer)
	assert.Equal(t, 3, cfg.Rewards.ReferralFreeDeliveryCredits)
	assert.False(t, cfg.Rewards.ReferralFirstPurchaseOnly)
	assert.Equal(t, int64(1), cfg.Rewards.SpinsPerCycle)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("MAX_REFERRALS_PER_CUSTOMER", "2")
	t.Setenv("REFERRAL_FIRST_PURCHASE_ONLY", "true")
	t.Setenv("REWARD_TIMEZONE", "Asia/Tokyo")
	t.Setenv("LEADERBOARD_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2, cfg.Rewards.MaxReferralsPerCustomer)
	assert.True(t, cfg.Rewards.ReferralFirstPurchaseOnly)
	assert.Equal(t, time.Minute, cfg.LeaderboardCacheTTL)

	loc, err := cfg.Rewards.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_REFERRALS_PER_CUSTOMER", "many")
	_, err := Load()
	assert.Error(t, err)
}
