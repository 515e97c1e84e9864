package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

// Score is one user's aggregate for a leaderboard category.
type Score struct {
	UID   string `gorm:"column:uid"`
	Value int64  `gorm:"column:score"`
}

// Window is a half-open [From, To) time range. A nil bound is open.
type Window struct {
	From *time.Time
	To   *time.Time
}

type LeaderboardRepository interface {
	// Scores returns positive aggregates ordered by value descending then uid ascending.
	Scores(ctx context.Context, category model.LeaderboardCategory, w Window) ([]Score, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) Scores(ctx context.Context, category model.LeaderboardCategory, w Window) ([]Score, error) {
	q := r.db.WithContext(ctx)
	switch category {
	case model.LeaderboardSpending:
		q = applyWindow(q.Model(&model.PurchaseRecord{}), "purchased_at", w).
			Select("uid, SUM(amount) AS score").
			Group("uid").
			Having("SUM(amount) > 0")
	case model.LeaderboardOrders:
		q = applyWindow(q.Model(&model.PurchaseRecord{}), "purchased_at", w).
			Select("uid, COUNT(*) AS score").
			Group("uid")
	case model.LeaderboardReferrals:
		q = applyWindow(q.Model(&model.ReferralLink{}), "completed_at", w).
			Where("status = ?", model.ReferralStatusCompleted).
			Select("referrer_uid AS uid, COUNT(*) AS score").
			Group("referrer_uid")
	case model.LeaderboardPoints:
		q = q.Model(&model.UserRewardAccount{}).
			Select("uid, points_earned AS score").
			Where("points_earned > 0")
	default:
		return nil, fmt.Errorf("unknown leaderboard category %q", category)
	}

	var scores []Score
	if err := q.Order("score DESC, uid ASC").Scan(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func applyWindow(q *gorm.DB, column string, w Window) *gorm.DB {
	if w.From != nil {
		q = q.Where(column+" >= ?", *w.From)
	}
	if w.To != nil {
		q = q.Where(column+" < ?", *w.To)
	}
	return q
}
