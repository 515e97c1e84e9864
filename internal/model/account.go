package model

import "time"

// UserRewardAccount holds a customer's lifetime spend counters, the current bracket cycle and
// the points balance. Available points are PointsEarned - PointsRedeemed.
type UserRewardAccount struct {
	UID                  string     `gorm:"column:uid;primaryKey;size:128"`
	TotalSpend           int64      `gorm:"column:total_spend;not null;default:0"`
	PurchaseCount        int64      `gorm:"column:purchase_count;not null;default:0"`
	PointsEarned         int64      `gorm:"column:points_earned;not null;default:0"`
	PointsRedeemed       int64      `gorm:"column:points_redeemed;not null;default:0"`
	CurrentCycleSpend    int64      `gorm:"column:current_cycle_spend;not null;default:0"`
	CurrentCycleReceipts int        `gorm:"column:current_cycle_receipts;not null;default:0"`
	LastPurchaseAt       *time.Time `gorm:"column:last_purchase_at"`
	Version              int64      `gorm:"column:version;not null;default:0"`
	CreatedAt            time.Time  `gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime"`
}

func (UserRewardAccount) TableName() string {
	return "user_reward_accounts"
}

func (a *UserRewardAccount) PointsAvailable() int64 {
	return a.PointsEarned - a.PointsRedeemed
}
