package model

import "time"

type TransactionKind string

const (
	TransactionKindBracketBonus       TransactionKind = "BRACKET_BONUS"
	TransactionKindBadgeBonus         TransactionKind = "BADGE_BONUS"
	TransactionKindSpinWin            TransactionKind = "SPIN_WIN"
	TransactionKindReferralBonus      TransactionKind = "REFERRAL_BONUS"
	TransactionKindReferralCapReached TransactionKind = "REFERRAL_CAP_REACHED"
	TransactionKindRedemption         TransactionKind = "REDEMPTION"
)

// RewardTransaction is the append-only audit log. Rows are inserted, never updated.
type RewardTransaction struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	UID         string          `gorm:"column:uid;size:128;index;not null"`
	Kind        TransactionKind `gorm:"column:kind;size:32;not null"`
	Amount      int64           `gorm:"column:amount;not null"`
	Description string          `gorm:"column:description;size:255"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
}

func (RewardTransaction) TableName() string {
	return "reward_transactions"
}
