package repository

import (
	"context"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository interface {
	SyncDefinitions(ctx context.Context, defs []model.BadgeDefinition) error
	ListAwards(ctx context.Context, uid string) ([]model.UserBadgeAward, error)
	// Award inserts the award, credits bonus points and appends entry in one transaction.
	// A second award for the same (uid, badge) fails with gorm.ErrDuplicatedKey.
	Award(ctx context.Context, award *model.UserBadgeAward, bonus int64, entry *model.RewardTransaction) error
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) SyncDefinitions(ctx context.Context, defs []model.BadgeDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category", "requirement", "bonus_points", "tier", "updated_at"}),
	}).Create(&defs).Error
}

func (r *badgeRepository) ListAwards(ctx context.Context, uid string) ([]model.UserBadgeAward, error) {
	var list []model.UserBadgeAward
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("earned_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *badgeRepository) Award(ctx context.Context, award *model.UserBadgeAward, bonus int64, entry *model.RewardTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(award).Error; err != nil {
			return err
		}
		if bonus > 0 {
			if err := creditPoints(tx, award.UID, bonus); err != nil {
				return err
			}
		}
		if entry != nil {
			return tx.Create(entry).Error
		}
		return nil
	})
}
