package model

import "time"

// PurchaseRecord is one accepted purchase-completion event. OrderRef is unique so a replayed
// event for the same order is rejected by the database.
type PurchaseRecord struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UID         string    `gorm:"column:uid;size:128;index:idx_purchase_uid_at,priority:1;not null"`
	OrderRef    string    `gorm:"column:order_ref;size:128;uniqueIndex;not null"`
	Amount      int64     `gorm:"column:amount;not null"`
	PurchasedAt time.Time `gorm:"column:purchased_at;index:idx_purchase_uid_at,priority:2;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (PurchaseRecord) TableName() string {
	return "reward_purchases"
}
