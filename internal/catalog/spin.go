package catalog

import (
	"math"

	"github.com/shinyyama/storefront-rewards/internal/model"
)

type SpinReward struct {
	Code              string           `yaml:"code"`
	Label             string           `yaml:"label"`
	RewardType        model.RewardType `yaml:"type"`
	RewardValue       int64            `yaml:"value"`
	ProbabilityWeight float64          `yaml:"weight"`
	Disabled          bool             `yaml:"disabled"`
}

// ActiveSpinRewards returns the enabled rewards in catalog order.
func (c *Catalog) ActiveSpinRewards() []SpinReward {
	active := make([]SpinReward, 0, len(c.SpinRewards))
	for _, r := range c.SpinRewards {
		if !r.Disabled {
			active = append(active, r)
		}
	}
	return active
}

// SelectSpinReward maps a draw in [0,100) onto the cumulative weights of rewards. The first
// reward whose running total exceeds draw wins; a draw past the total (float residue) falls
// to the last reward.
func SelectSpinReward(draw float64, rewards []SpinReward) (SpinReward, bool) {
	if len(rewards) == 0 {
		return SpinReward{}, false
	}
	var cumulative float64
	for _, r := range rewards {
		cumulative += r.ProbabilityWeight
		if draw < cumulative {
			return r, true
		}
	}
	return rewards[len(rewards)-1], true
}

func validateSpinRewards(rewards []SpinReward) error {
	seen := make(map[string]struct{}, len(rewards))
	var total float64
	active := 0
	for _, r := range rewards {
		if r.Code == "" {
			return configErr("spinRewards", "reward without code")
		}
		if _, dup := seen[r.Code]; dup {
			return configErr("spinRewards", "duplicate reward code %q", r.Code)
		}
		seen[r.Code] = struct{}{}
		switch r.RewardType {
		case model.RewardTypePoints, model.RewardTypeFreeDelivery, model.RewardTypeDiscount:
		default:
			return configErr("spinRewards", "reward %q has unknown type %q", r.Code, r.RewardType)
		}
		if r.RewardValue < 0 {
			return configErr("spinRewards", "reward %q has negative value", r.Code)
		}
		if r.ProbabilityWeight < 0 || math.IsNaN(r.ProbabilityWeight) {
			return configErr("spinRewards", "reward %q has invalid weight", r.Code)
		}
		if r.Disabled {
			continue
		}
		active++
		total += r.ProbabilityWeight
	}
	if active == 0 {
		return configErr("spinRewards", "no active spin rewards")
	}
	if math.Abs(total-100) > WeightTolerance {
		return configErr("spinRewards", "active weights sum to %.4f, want 100", total)
	}
	return nil
}
