package repository

import (
	"context"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

// TransactionRepository reads the append-only reward log. Writes happen only inside the
// transactions of the other repositories.
type TransactionRepository interface {
	ListByUser(ctx context.Context, uid string, limit int) ([]model.RewardTransaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListByUser(ctx context.Context, uid string, limit int) ([]model.RewardTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.RewardTransaction
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
