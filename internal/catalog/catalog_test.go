package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	var total float64
	for _, r := range c.ActiveSpinRewards() {
		total += r.ProbabilityWeight
	}
	assert.InDelta(t, 100, total, WeightTolerance)
}

func TestTierTableMatch(t *testing.T) {
	tiers := Default().Tiers
	tests := []struct {
		name   string
		spend  int64
		index  int
		reward int64
	}{
		{"zero spend", 0, 0, 250},
		{"upper edge inclusive", 15000, 0, 250},
		{"lower edge inclusive", 15001, 1, 1000},
		{"scenario spend", 30500, 2, 2000},
		{"gold lower edge", 30100, 2, 2000},
		{"unbounded top", 5_000_000, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, tier := tiers.Match(tt.spend)
			assert.Equal(t, tt.index, idx)
			assert.Equal(t, tt.reward, tier.RewardValue)
		})
	}
}

func TestTierTableMatchMissReturnsMinusOne(t *testing.T) {
	tiers := TierTable{{MinSpend: 10, MaxSpend: bound(20), RewardValue: 5}}
	idx, tier := tiers.Match(5)
	assert.Equal(t, -1, idx)
	assert.Zero(t, tier.RewardValue)
}

func TestTierTableValidate(t *testing.T) {
	tests := []struct {
		name  string
		tiers TierTable
	}{
		{"empty", TierTable{}},
		{"does not start at zero", TierTable{{MinSpend: 1}}},
		{"gap", TierTable{{MinSpend: 0, MaxSpend: bound(100)}, {MinSpend: 102}}},
		{"overlap", TierTable{{MinSpend: 0, MaxSpend: bound(100)}, {MinSpend: 100}}},
		{"bounded last", TierTable{{MinSpend: 0, MaxSpend: bound(100)}}},
		{"unbounded middle", TierTable{{MinSpend: 0}, {MinSpend: 1}}},
		{"negative reward", TierTable{{MinSpend: 0, RewardValue: -1}}},
		{"inverted range", TierTable{{MinSpend: 0, MaxSpend: bound(10)}, {MinSpend: 11, MaxSpend: bound(5)}, {MinSpend: 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tiers.Validate()
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
			assert.Equal(t, "tiers", cfgErr.Section)
		})
	}
}

func TestSpinWeightsMustSumToHundred(t *testing.T) {
	c := Default()
	c.SpinRewards[0].ProbabilityWeight += 0.5

	err := c.Validate()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "spinRewards", cfgErr.Section)
}

func TestSpinWeightsWithinTolerance(t *testing.T) {
	c := Default()
	c.SpinRewards[0].ProbabilityWeight += 0.005
	assert.NoError(t, c.Validate())
}

func TestDisabledSpinRewardsAreExcludedFromWeightSum(t *testing.T) {
	c := Default()
	c.SpinRewards = append(c.SpinRewards, SpinReward{
		Code: "retired", RewardType: model.RewardTypePoints, RewardValue: 1, ProbabilityWeight: 50, Disabled: true,
	})
	require.NoError(t, c.Validate())
	assert.Len(t, c.ActiveSpinRewards(), len(c.SpinRewards)-1)
}

func TestSelectSpinReward(t *testing.T) {
	rewards := []SpinReward{
		{Code: "a", ProbabilityWeight: 50},
		{Code: "b", ProbabilityWeight: 30},
		{Code: "c", ProbabilityWeight: 20},
	}
	tests := []struct {
		draw float64
		want string
	}{
		{0, "a"},
		{49.999, "a"},
		{50, "b"},
		{79.99, "b"},
		{80, "c"},
		{99.999, "c"},
		{100, "c"},
	}
	for _, tt := range tests {
		got, ok := SelectSpinReward(tt.draw, rewards)
		require.True(t, ok)
		assert.Equal(t, tt.want, got.Code, "draw %v", tt.draw)
	}

	_, ok := SelectSpinReward(10, nil)
	assert.False(t, ok)
}

func TestBadgeValidation(t *testing.T) {
	tests := []struct {
		name  string
		badge model.BadgeDefinition
	}{
		{"missing code", model.BadgeDefinition{Category: model.BadgeCategoryPurchaseCount, Requirement: 1}},
		{"unknown category", model.BadgeDefinition{Code: "x", Category: "LOGIN_COUNT", Requirement: 1}},
		{"zero requirement", model.BadgeDefinition{Code: "x", Category: model.BadgeCategoryTotalSpend}},
		{"hour out of range", model.BadgeDefinition{Code: "x", Category: model.BadgeCategoryTimeOfDay, Requirement: 24}},
		{"negative bonus", model.BadgeDefinition{Code: "x", Category: model.BadgeCategoryPurchaseCount, Requirement: 1, BonusPoints: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Badges = []model.BadgeDefinition{tt.badge}
			var cfgErr *ConfigurationError
			assert.ErrorAs(t, c.Validate(), &cfgErr)
		})
	}

	c := Default()
	c.Badges = append(c.Badges, c.Badges[0])
	assert.Error(t, c.Validate())
}

const sampleCatalog = `
tiers:
  - minSpend: 0
    maxSpend: 999
    reward: 10
  - minSpend: 1000
    reward: 100
badges:
  - code: first_order
    name: First Order
    category: PURCHASE_COUNT
    requirement: 1
    bonusPoints: 25
spinRewards:
  - code: pts
    type: POINTS
    value: 5
    weight: 60
  - code: ship
    type: FREE_DELIVERY
    value: 1
    weight: 40
`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Tiers, 2)
	assert.Nil(t, c.Tiers[1].MaxSpend)
	assert.Equal(t, int64(100), c.Tiers[1].RewardValue)

	b, ok := c.Badge("first_order")
	require.True(t, ok)
	assert.Equal(t, int64(25), b.BonusPoints)
	assert.Equal(t, model.RewardTypeFreeDelivery, c.SpinRewards[1].RewardType)
}

func TestParseRejectsBadWeights(t *testing.T) {
	_, err := Parse([]byte(`
tiers:
  - minSpend: 0
spinRewards:
  - code: pts
    type: POINTS
    value: 5
    weight: 90
`))
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, len(Default().Badges), len(c.Badges))
}

func TestExampleCatalogFileMatchesDefaults(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "rewards.example.yaml"))
	require.NoError(t, err)

	def := Default()
	require.Len(t, c.Tiers, len(def.Tiers))
	for i := range def.Tiers {
		assert.Equal(t, def.Tiers[i].Label, c.Tiers[i].Label)
		assert.Equal(t, def.Tiers[i].RewardValue, c.Tiers[i].RewardValue)
	}
	assert.Equal(t, def.SpinRewards, c.SpinRewards)
}
