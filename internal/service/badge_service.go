package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/metrics"
	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

// BadgeStats are the per-user values badge requirements are compared against.
type BadgeStats struct {
	PurchaseCount int64
	TotalSpend    int64
	ReferralCount int64
	OrderStreak   int64
	HourOfDay     int
}

func (s BadgeStats) Value(category model.BadgeCategory) (int64, bool) {
	switch category {
	case model.BadgeCategoryPurchaseCount:
		return s.PurchaseCount, true
	case model.BadgeCategoryTotalSpend:
		return s.TotalSpend, true
	case model.BadgeCategoryReferralCount:
		return s.ReferralCount, true
	case model.BadgeCategoryOrderStreak:
		return s.OrderStreak, true
	case model.BadgeCategoryTimeOfDay:
		return int64(s.HourOfDay), true
	}
	return 0, false
}

type BadgeService interface {
	// Evaluate awards every catalog badge the user now qualifies for and returns only the
	// badges awarded by this call.
	Evaluate(ctx context.Context, uid string, at time.Time) ([]model.BadgeDefinition, error)
	Definitions() []model.BadgeDefinition
}

type badgeService struct {
	repos  *repository.Repositories
	badges []model.BadgeDefinition
	loc    *time.Location
	notify NotificationService
	log    logrus.FieldLogger
}

func NewBadgeService(repos *repository.Repositories, cat *catalog.Catalog, loc *time.Location, notify NotificationService, log logrus.FieldLogger) BadgeService {
	if loc == nil {
		loc = time.UTC
	}
	return &badgeService{repos: repos, badges: cat.Badges, loc: loc, notify: notify, log: log}
}

func (s *badgeService) Definitions() []model.BadgeDefinition {
	return s.badges
}

func (s *badgeService) Evaluate(ctx context.Context, uid string, at time.Time) ([]model.BadgeDefinition, error) {
	if uid == "" {
		return nil, errUIDRequired
	}
	held, err := s.repos.Badges.ListAwards(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list badge awards: %w", err)
	}
	awarded := make(map[string]struct{}, len(held))
	for _, a := range held {
		awarded[a.BadgeCode] = struct{}{}
	}
	if len(awarded) == len(s.badges) {
		return nil, nil
	}

	stats, err := s.loadStats(ctx, uid, at)
	if err != nil {
		return nil, err
	}

	log := reqctx.Logger(ctx, s.log)
	var newly []model.BadgeDefinition
	var errs []error
	for _, def := range s.badges {
		if _, ok := awarded[def.Code]; ok {
			continue
		}
		v, ok := stats.Value(def.Category)
		if !ok || v < def.Requirement {
			continue
		}
		award := &model.UserBadgeAward{UID: uid, BadgeCode: def.Code, EarnedAt: at}
		entry := &model.RewardTransaction{
			UID:         uid,
			Kind:        model.TransactionKindBadgeBonus,
			Amount:      def.BonusPoints,
			Description: fmt.Sprintf("badge %s earned", def.Code),
			CreatedAt:   at,
		}
		err := s.repos.Badges.Award(ctx, award, def.BonusPoints, entry)
		switch {
		case err == nil:
			newly = append(newly, def)
			metrics.ObserveBadgeAwarded(def.Code)
			log.WithField("badge", def.Code).Info("badge awarded")
			s.notify.Notify(ctx, uid, NotificationBadgeAwarded, def.Name, def.Description, strPtr(def.Code), nil)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			log.WithField("badge", def.Code).Debug("badge already awarded concurrently")
		default:
			errs = append(errs, fmt.Errorf("award %s: %w", def.Code, err))
		}
	}
	return newly, errors.Join(errs...)
}

func (s *badgeService) loadStats(ctx context.Context, uid string, at time.Time) (BadgeStats, error) {
	acc, err := s.repos.Accounts.Get(ctx, uid)
	if err != nil {
		return BadgeStats{}, fmt.Errorf("load reward account: %w", err)
	}
	referrals, err := s.repos.Referrals.CountCompletedByReferrer(ctx, uid)
	if err != nil {
		return BadgeStats{}, fmt.Errorf("count referrals: %w", err)
	}
	stats := BadgeStats{
		PurchaseCount: acc.PurchaseCount,
		TotalSpend:    acc.TotalSpend,
		ReferralCount: referrals,
		HourOfDay:     at.In(s.loc).Hour(),
	}

	if window := s.maxStreakRequirement(); window > 0 {
		day := calendarDay(at, s.loc)
		since := day.AddDate(0, 0, -int(window))
		times, err := s.repos.Purchases.PurchaseTimes(ctx, uid, since)
		if err != nil {
			return BadgeStats{}, fmt.Errorf("load purchase days: %w", err)
		}
		stats.OrderStreak = OrderStreak(times, at, s.loc)
	}
	return stats, nil
}

func (s *badgeService) maxStreakRequirement() int64 {
	var longest int64
	for _, def := range s.badges {
		if def.Category == model.BadgeCategoryOrderStreak && def.Requirement > longest {
			longest = def.Requirement
		}
	}
	return longest
}

// OrderStreak counts consecutive calendar days in loc with at least one purchase, ending on
// the day of at. It is zero when there was no purchase that day.
func OrderStreak(purchases []time.Time, at time.Time, loc *time.Location) int64 {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[time.Time]struct{}, len(purchases))
	for _, t := range purchases {
		days[calendarDay(t, loc)] = struct{}{}
	}
	var streak int64
	for d := calendarDay(at, loc); ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d]; !ok {
			return streak
		}
		streak++
	}
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}
