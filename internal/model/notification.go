package model

import "time"

// NotificationType is the reward event a notification announces.
type NotificationType string

const (
	NotificationBracketBonus NotificationType = "bracket_bonus"
	NotificationBadgeAwarded NotificationType = "badge_awarded"
	NotificationReferral     NotificationType = "referral_reward"
	NotificationSpinWin      NotificationType = "spin_win"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationBracketBonus, NotificationBadgeAwarded, NotificationReferral, NotificationSpinWin:
		return true
	}
	return false
}

type Notification struct {
	ID         uint64           `gorm:"primaryKey;autoIncrement"`
	UserUID    string           `gorm:"column:user_uid;size:128;not null;index:idx_notifications_user_type,priority:1"`
	Type       NotificationType `gorm:"column:type;size:64;not null;index:idx_notifications_user_type,priority:2"`
	Title      string           `gorm:"column:title;size:255"`
	Body       string           `gorm:"column:body;type:text"`
	BadgeCode  *string          `gorm:"column:badge_code;size:64"`
	CreditCode *string          `gorm:"column:credit_code;size:36"`
	ReadAt     *time.Time       `gorm:"column:read_at"`
	CreatedAt  time.Time        `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
