package catalog

import "github.com/shinyyama/storefront-rewards/internal/model"

func bound(v int64) *int64 { return &v }

// Default is the catalog served when no REWARD_CATALOG_PATH is configured.
// The open-ended top tier pays nothing until an operator sets its reward.
func Default() *Catalog {
	return &Catalog{
		Tiers: TierTable{
			{MinSpend: 0, MaxSpend: bound(15000), RewardValue: 250, Label: "bronze"},
			{MinSpend: 15001, MaxSpend: bound(30099), RewardValue: 1000, Label: "silver"},
			{MinSpend: 30100, MaxSpend: bound(50000), RewardValue: 2000, Label: "gold"},
			{MinSpend: 50001, MaxSpend: bound(100000), RewardValue: 4000, Label: "platinum"},
			{MinSpend: 100001, RewardValue: 0, Label: "custom"},
		},
		Badges: []model.BadgeDefinition{
			{Code: "first_order", Name: "First Order", Description: "Completed a first purchase", Category: model.BadgeCategoryPurchaseCount, Requirement: 1, BonusPoints: 50, Tier: 1},
			{Code: "regular", Name: "Regular", Description: "Completed 10 purchases", Category: model.BadgeCategoryPurchaseCount, Requirement: 10, BonusPoints: 200, Tier: 2},
			{Code: "loyal", Name: "Loyal Customer", Description: "Completed 50 purchases", Category: model.BadgeCategoryPurchaseCount, Requirement: 50, BonusPoints: 1000, Tier: 3},
			{Code: "big_spender", Name: "Big Spender", Description: "Spent 100,000 in total", Category: model.BadgeCategoryTotalSpend, Requirement: 100000, BonusPoints: 500, Tier: 2},
			{Code: "high_roller", Name: "High Roller", Description: "Spent 1,000,000 in total", Category: model.BadgeCategoryTotalSpend, Requirement: 1000000, BonusPoints: 2500, Tier: 3},
			{Code: "connector", Name: "Connector", Description: "First referral converted", Category: model.BadgeCategoryReferralCount, Requirement: 1, BonusPoints: 100, Tier: 1},
			{Code: "ambassador", Name: "Ambassador", Description: "Five referrals converted", Category: model.BadgeCategoryReferralCount, Requirement: 5, BonusPoints: 750, Tier: 2},
			{Code: "streak_3", Name: "On a Roll", Description: "Ordered three days in a row", Category: model.BadgeCategoryOrderStreak, Requirement: 3, BonusPoints: 150, Tier: 1},
			{Code: "streak_7", Name: "Weekly Habit", Description: "Ordered seven days in a row", Category: model.BadgeCategoryOrderStreak, Requirement: 7, BonusPoints: 500, Tier: 2},
			{Code: "night_owl", Name: "Night Owl", Description: "Ordered after 22:00", Category: model.BadgeCategoryTimeOfDay, Requirement: 22, BonusPoints: 75, Tier: 1},
		},
		SpinRewards: []SpinReward{
			{Code: "points_10", Label: "10 points", RewardType: model.RewardTypePoints, RewardValue: 10, ProbabilityWeight: 35},
			{Code: "points_50", Label: "50 points", RewardType: model.RewardTypePoints, RewardValue: 50, ProbabilityWeight: 25},
			{Code: "points_200", Label: "200 points", RewardType: model.RewardTypePoints, RewardValue: 200, ProbabilityWeight: 5},
			{Code: "free_delivery", Label: "Free delivery", RewardType: model.RewardTypeFreeDelivery, RewardValue: 1, ProbabilityWeight: 20},
			{Code: "discount_500", Label: "5.00 off", RewardType: model.RewardTypeDiscount, RewardValue: 500, ProbabilityWeight: 10},
			{Code: "discount_1000", Label: "10.00 off", RewardType: model.RewardTypeDiscount, RewardValue: 1000, ProbabilityWeight: 5},
		},
	}
}
