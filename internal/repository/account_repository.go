package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

// PurchaseCommit is the result of advancing an account by one purchase. Account holds the
// next state with the Version that was read; zero means the account did not exist yet.
type PurchaseCommit struct {
	Account    model.UserRewardAccount
	Purchase   model.PurchaseRecord
	Entries    []model.RewardTransaction
	GrantSpins int64
}

type AccountRepository interface {
	Get(ctx context.Context, uid string) (*model.UserRewardAccount, error)
	CommitPurchase(ctx context.Context, c *PurchaseCommit) error
	Redeem(ctx context.Context, uid string, points int64, entry *model.RewardTransaction) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Get returns the stored account or an unsaved zero account with Version 0.
func (r *accountRepository) Get(ctx context.Context, uid string) (*model.UserRewardAccount, error) {
	var acc model.UserRewardAccount
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserRewardAccount{UID: uid}, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepository) CommitPurchase(ctx context.Context, c *PurchaseCommit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c.Purchase).Error; err != nil {
			return err
		}

		expected := c.Account.Version
		next := c.Account
		next.Version = expected + 1
		if expected == 0 {
			if err := tx.Create(&next).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrVersionConflict
				}
				return err
			}
		} else {
			res := tx.Model(&model.UserRewardAccount{}).
				Where("uid = ? AND version = ?", next.UID, expected).
				Updates(map[string]interface{}{
					"total_spend":            next.TotalSpend,
					"purchase_count":         next.PurchaseCount,
					"points_earned":          next.PointsEarned,
					"current_cycle_spend":    next.CurrentCycleSpend,
					"current_cycle_receipts": next.CurrentCycleReceipts,
					"last_purchase_at":       next.LastPurchaseAt,
					"version":                next.Version,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrVersionConflict
			}
		}

		for i := range c.Entries {
			if err := tx.Create(&c.Entries[i]).Error; err != nil {
				return err
			}
		}
		if c.GrantSpins > 0 {
			if err := grantSpins(tx, next.UID, c.GrantSpins); err != nil {
				return err
			}
		}
		c.Account = next
		return nil
	})
}

// Redeem moves points from earned to redeemed only while the available balance covers them.
func (r *accountRepository) Redeem(ctx context.Context, uid string, points int64, entry *model.RewardTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserRewardAccount{}).
			Where("uid = ? AND points_earned - points_redeemed >= ?", uid, points).
			Updates(map[string]interface{}{
				"points_redeemed": gorm.Expr("points_redeemed + ?", points),
				"version":         gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(entry).Error
	})
}
