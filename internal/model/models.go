package model

// All lists every table managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&UserRewardAccount{},
		&PurchaseRecord{},
		&BadgeDefinition{},
		&UserBadgeAward{},
		&ReferralLink{},
		&UserSpinAllowance{},
		&RewardCredit{},
		&RewardTransaction{},
		&Notification{},
	}
}
