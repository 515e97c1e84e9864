package repository

import (
	"context"
	"time"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralCompletion describes a PENDING→COMPLETED transition and its payout.
type ReferralCompletion struct {
	LinkID      uint64
	ReferrerUID string
	CompletedAt time.Time
	// MaxPaid is the number of paid conversions a referrer may hold.
	MaxPaid     int
	Credits     []model.RewardCredit
	PayoutEntry model.RewardTransaction
	CapEntry    model.RewardTransaction
}

type ReferralCompletionResult struct {
	Completed bool
	Paid      bool
}

type ReferralRepository interface {
	Create(ctx context.Context, link *model.ReferralLink) error
	FindPendingByReferee(ctx context.Context, refereeUID string) (*model.ReferralLink, error)
	CountCompletedByReferrer(ctx context.Context, referrerUID string) (int64, error)
	Complete(ctx context.Context, c *ReferralCompletion) (*ReferralCompletionResult, error)
}

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, link *model.ReferralLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *referralRepository) FindPendingByReferee(ctx context.Context, refereeUID string) (*model.ReferralLink, error) {
	var link model.ReferralLink
	if err := r.db.WithContext(ctx).
		Where("referee_uid = ? AND status = ?", refereeUID, model.ReferralStatusPending).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *referralRepository) CountCompletedByReferrer(ctx context.Context, referrerUID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.ReferralLink{}).
		Where("referrer_uid = ? AND status = ?", referrerUID, model.ReferralStatusCompleted).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// Complete flips the link to COMPLETED only if it is still PENDING, then pays the referrer
// unless the referrer already holds MaxPaid paid conversions. The referrer's account row is
// locked so concurrent conversions for one referrer see each other's payouts.
func (r *referralRepository) Complete(ctx context.Context, c *ReferralCompletion) (*ReferralCompletionResult, error) {
	result := &ReferralCompletionResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ReferralLink{}).
			Where("id = ? AND status = ?", c.LinkID, model.ReferralStatusPending).
			Updates(map[string]interface{}{
				"status":       model.ReferralStatusCompleted,
				"completed_at": c.CompletedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		result.Completed = true

		if err := ensureAccount(tx, c.ReferrerUID); err != nil {
			return err
		}
		var referrer model.UserRewardAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uid = ?", c.ReferrerUID).
			First(&referrer).Error; err != nil {
			return err
		}

		var paid int64
		if err := tx.Model(&model.ReferralLink{}).
			Where("referrer_uid = ? AND reward_paid = ?", c.ReferrerUID, true).
			Count(&paid).Error; err != nil {
			return err
		}
		if paid >= int64(c.MaxPaid) {
			return tx.Create(&c.CapEntry).Error
		}

		for i := range c.Credits {
			if err := tx.Create(&c.Credits[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&model.ReferralLink{}).
			Where("id = ?", c.LinkID).
			Update("reward_paid", true).Error; err != nil {
			return err
		}
		result.Paid = true
		return tx.Create(&c.PayoutEntry).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
