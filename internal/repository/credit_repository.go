package repository

import (
	"context"
	"time"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

type CreditRepository interface {
	ListByUser(ctx context.Context, uid string, includeRedeemed bool) ([]model.RewardCredit, error)
	// Redeem marks an unredeemed credit as used; gorm.ErrRecordNotFound otherwise.
	Redeem(ctx context.Context, uid, code string, at time.Time) error
}

type creditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) ListByUser(ctx context.Context, uid string, includeRedeemed bool) ([]model.RewardCredit, error) {
	var list []model.RewardCredit
	q := r.db.WithContext(ctx).Where("uid = ?", uid)
	if !includeRedeemed {
		q = q.Where("redeemed_at IS NULL")
	}
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *creditRepository) Redeem(ctx context.Context, uid, code string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.RewardCredit{}).
		Where("code = ? AND uid = ? AND redeemed_at IS NULL", code, uid).
		Update("redeemed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
