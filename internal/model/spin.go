package model

import "time"

type UserSpinAllowance struct {
	UID                string    `gorm:"column:uid;primaryKey;size:128"`
	SpinsAvailable     int64     `gorm:"column:spins_available;not null;default:0"`
	TotalSpinsConsumed int64     `gorm:"column:total_spins_consumed;not null;default:0"`
	TotalWinningsValue int64     `gorm:"column:total_winnings_value;not null;default:0"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (UserSpinAllowance) TableName() string {
	return "user_spin_allowances"
}
