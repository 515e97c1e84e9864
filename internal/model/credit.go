package model

import "time"

type RewardType string

const (
	RewardTypePoints       RewardType = "POINTS"
	RewardTypeFreeDelivery RewardType = "FREE_DELIVERY"
	RewardTypeDiscount     RewardType = "DISCOUNT"
)

// RewardCredit is a redeemable non-points reward such as a free delivery voucher.
type RewardCredit struct {
	Code       string     `gorm:"column:code;primaryKey;size:36"`
	UID        string     `gorm:"column:uid;size:128;index;not null"`
	CreditType RewardType `gorm:"column:credit_type;size:32;not null"`
	Value      int64      `gorm:"column:value;not null;default:0"`
	Source     string     `gorm:"column:source;size:64;not null"`
	RedeemedAt *time.Time `gorm:"column:redeemed_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
}

func (RewardCredit) TableName() string {
	return "reward_credits"
}
