package repository

import (
	"context"
	"time"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	CountByUser(ctx context.Context, uid string) (int64, error)
	PurchaseTimes(ctx context.Context, uid string, since time.Time) ([]time.Time, error)
	ListByUser(ctx context.Context, uid string, limit int) ([]model.PurchaseRecord, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) CountByUser(ctx context.Context, uid string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.PurchaseRecord{}).
		Where("uid = ?", uid).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// PurchaseTimes lists purchase timestamps at or after since, newest first.
func (r *purchaseRepository) PurchaseTimes(ctx context.Context, uid string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	if err := r.db.WithContext(ctx).
		Model(&model.PurchaseRecord{}).
		Where("uid = ? AND purchased_at >= ?", uid, since).
		Order("purchased_at DESC").
		Pluck("purchased_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

func (r *purchaseRepository) ListByUser(ctx context.Context, uid string, limit int) ([]model.PurchaseRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.PurchaseRecord
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("purchased_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
