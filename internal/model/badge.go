package model

import "time"

type BadgeCategory string

const (
	BadgeCategoryPurchaseCount BadgeCategory = "PURCHASE_COUNT"
	BadgeCategoryTotalSpend    BadgeCategory = "TOTAL_SPEND"
	BadgeCategoryReferralCount BadgeCategory = "REFERRAL_COUNT"
	BadgeCategoryOrderStreak   BadgeCategory = "ORDER_STREAK"
	BadgeCategoryTimeOfDay     BadgeCategory = "TIME_OF_DAY"
)

// BadgeDefinition is a catalog row. Rows are written only by the catalog sync at startup.
type BadgeDefinition struct {
	Code        string        `gorm:"column:code;primaryKey;size:64" yaml:"code"`
	Name        string        `gorm:"column:name;size:128;not null" yaml:"name"`
	Description string        `gorm:"column:description;type:text" yaml:"description"`
	Category    BadgeCategory `gorm:"column:category;size:32;not null" yaml:"category"`
	Requirement int64         `gorm:"column:requirement;not null" yaml:"requirement"`
	BonusPoints int64         `gorm:"column:bonus_points;not null;default:0" yaml:"bonusPoints"`
	Tier        int           `gorm:"column:tier;not null;default:0" yaml:"tier"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" yaml:"-"`
}

func (BadgeDefinition) TableName() string {
	return "badge_definitions"
}

type UserBadgeAward struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UID       string    `gorm:"column:uid;size:128;not null;uniqueIndex:uq_user_badge,priority:1"`
	BadgeCode string    `gorm:"column:badge_code;size:64;not null;uniqueIndex:uq_user_badge,priority:2"`
	EarnedAt  time.Time `gorm:"column:earned_at;not null"`
}

func (UserBadgeAward) TableName() string {
	return "user_badge_awards"
}
