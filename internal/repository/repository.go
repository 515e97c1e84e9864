package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shinyyama/storefront-rewards/internal/model"
)

// ErrVersionConflict is returned when an optimistic account write finds the row changed
// since it was read.
var ErrVersionConflict = errors.New("version_conflict")

// Repositories bundles the ledger store. Every implementation must keep the conditional
// writes atomic: a failed condition leaves no partial state behind.
type Repositories struct {
	Accounts      AccountRepository
	Purchases     PurchaseRepository
	Badges        BadgeRepository
	Referrals     ReferralRepository
	Spins         SpinRepository
	Credits       CreditRepository
	Transactions  TransactionRepository
	Leaderboard   LeaderboardRepository
	Notifications NotificationRepository
}

func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Accounts:      NewAccountRepository(db),
		Purchases:     NewPurchaseRepository(db),
		Badges:        NewBadgeRepository(db),
		Referrals:     NewReferralRepository(db),
		Spins:         NewSpinRepository(db),
		Credits:       NewCreditRepository(db),
		Transactions:  NewTransactionRepository(db),
		Leaderboard:   NewLeaderboardRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// ensureAccount lazily creates the reward account row inside tx.
func ensureAccount(tx *gorm.DB, uid string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserRewardAccount{UID: uid, Version: 1}).Error
}

// creditPoints adds points to an account and bumps its version so concurrent optimistic
// writers re-read the balance.
func creditPoints(tx *gorm.DB, uid string, points int64) error {
	if err := ensureAccount(tx, uid); err != nil {
		return err
	}
	return tx.Model(&model.UserRewardAccount{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"points_earned": gorm.Expr("points_earned + ?", points),
			"version":       gorm.Expr("version + 1"),
		}).Error
}
