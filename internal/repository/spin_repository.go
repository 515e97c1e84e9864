package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SpinConsumption is one spin already drawn: the allowance is decremented and the prize
// credited together, or not at all.
type SpinConsumption struct {
	UID         string
	RewardType  model.RewardType
	RewardValue int64
	Credit      *model.RewardCredit
	Entry       model.RewardTransaction
}

type SpinRepository interface {
	Get(ctx context.Context, uid string) (*model.UserSpinAllowance, error)
	Grant(ctx context.Context, uid string, spins int64) error
	// Consume fails with gorm.ErrRecordNotFound when no spin is available.
	Consume(ctx context.Context, c *SpinConsumption) error
}

type spinRepository struct {
	db *gorm.DB
}

func NewSpinRepository(db *gorm.DB) SpinRepository {
	return &spinRepository{db: db}
}

func (r *spinRepository) Get(ctx context.Context, uid string) (*model.UserSpinAllowance, error) {
	var sa model.UserSpinAllowance
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&sa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserSpinAllowance{UID: uid}, nil
	}
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *spinRepository) Grant(ctx context.Context, uid string, spins int64) error {
	if spins <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return grantSpins(tx, uid, spins)
	})
}

func grantSpins(tx *gorm.DB, uid string, spins int64) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserSpinAllowance{UID: uid}).Error; err != nil {
		return err
	}
	return tx.Model(&model.UserSpinAllowance{}).
		Where("uid = ?", uid).
		Update("spins_available", gorm.Expr("spins_available + ?", spins)).Error
}

func (r *spinRepository) Consume(ctx context.Context, c *SpinConsumption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserSpinAllowance{}).
			Where("uid = ? AND spins_available > 0", c.UID).
			Updates(map[string]interface{}{
				"spins_available":      gorm.Expr("spins_available - 1"),
				"total_spins_consumed": gorm.Expr("total_spins_consumed + 1"),
				"total_winnings_value": gorm.Expr("total_winnings_value + ?", c.RewardValue),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if c.RewardType == model.RewardTypePoints && c.RewardValue > 0 {
			if err := creditPoints(tx, c.UID, c.RewardValue); err != nil {
				return err
			}
		}
		if c.Credit != nil {
			if err := tx.Create(c.Credit).Error; err != nil {
				return err
			}
		}
		return tx.Create(&c.Entry).Error
	})
}
