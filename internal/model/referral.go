package model

import "time"

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "PENDING"
	ReferralStatusCompleted ReferralStatus = "COMPLETED"
)

type ReferralLink struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement"`
	ReferrerUID string         `gorm:"column:referrer_uid;size:128;index;not null"`
	RefereeUID  string         `gorm:"column:referee_uid;size:128;uniqueIndex;not null"`
	Status      ReferralStatus `gorm:"column:status;size:16;not null;index"`
	RewardPaid  bool           `gorm:"column:reward_paid;not null;default:false"`
	CompletedAt *time.Time     `gorm:"column:completed_at;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (ReferralLink) TableName() string {
	return "referral_links"
}
