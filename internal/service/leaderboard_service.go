package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	UID   string `json:"uid"`
	Score int64  `json:"score"`
}

type RankedList struct {
	Category model.LeaderboardCategory
	Period   model.LeaderboardPeriod
	From     *time.Time
	To       *time.Time
	Entries  []LeaderboardEntry
	// Viewer is the requesting user's entry, nil when they have no activity in the window.
	Viewer *LeaderboardEntry
}

// RankingCache stores full rankings as JSON. Implementations may drop entries at any time.
type RankingCache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
}

type LeaderboardService interface {
	Rank(ctx context.Context, category model.LeaderboardCategory, period model.LeaderboardPeriod, limit int, viewerUID string) (*RankedList, error)
}

type leaderboardService struct {
	repo  repository.LeaderboardRepository
	cache RankingCache
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewLeaderboardService builds the ranking reader. cache may be nil.
func NewLeaderboardService(repo repository.LeaderboardRepository, cache RankingCache, log logrus.FieldLogger) LeaderboardService {
	return &leaderboardService{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func ParseCategory(s string) (model.LeaderboardCategory, error) {
	switch c := model.LeaderboardCategory(strings.ToUpper(s)); c {
	case model.LeaderboardSpending, model.LeaderboardOrders, model.LeaderboardReferrals, model.LeaderboardPoints:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q: %w", s, ErrInvalidQuery)
}

func ParsePeriod(s string) (model.LeaderboardPeriod, error) {
	switch p := model.LeaderboardPeriod(strings.ToUpper(s)); p {
	case model.PeriodWeekly, model.PeriodMonthly, model.PeriodAllTime:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q: %w", s, ErrInvalidQuery)
}

// ResolvePeriod returns the half-open UTC window of period containing now. Weeks start on
// Monday 00:00; months on the first day; ALL_TIME is unbounded.
func ResolvePeriod(period model.LeaderboardPeriod, now time.Time) (repository.Window, error) {
	day := calendarDay(now, time.UTC)
	switch period {
	case model.PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		from := day.AddDate(0, 0, -offset)
		to := from.AddDate(0, 0, 7)
		return repository.Window{From: &from, To: &to}, nil
	case model.PeriodMonthly:
		from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)
		return repository.Window{From: &from, To: &to}, nil
	case model.PeriodAllTime:
		return repository.Window{}, nil
	}
	return repository.Window{}, fmt.Errorf("unknown period %q: %w", period, ErrInvalidQuery)
}

// AssignDenseRanks ranks scores already sorted by score descending. Equal scores share a
// rank and the next distinct score takes the following integer.
func AssignDenseRanks(scores []repository.Score) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(scores))
	rank := 0
	for i, s := range scores {
		if i == 0 || s.Value != scores[i-1].Value {
			rank++
		}
		entries = append(entries, LeaderboardEntry{Rank: rank, UID: s.UID, Score: s.Value})
	}
	return entries
}

func (s *leaderboardService) Rank(ctx context.Context, category model.LeaderboardCategory, period model.LeaderboardPeriod, limit int, viewerUID string) (*RankedList, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return nil, err
	}
	window, err := ResolvePeriod(period, s.now())
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}

	entries, err := s.ranking(ctx, category, period, window)
	if err != nil {
		return nil, err
	}

	out := &RankedList{Category: category, Period: period, From: window.From, To: window.To}
	if viewerUID != "" {
		for i := range entries {
			if entries[i].UID == viewerUID {
				v := entries[i]
				out.Viewer = &v
				break
			}
		}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out.Entries = entries
	return out, nil
}

func (s *leaderboardService) ranking(ctx context.Context, category model.LeaderboardCategory, period model.LeaderboardPeriod, w repository.Window) ([]LeaderboardEntry, error) {
	log := reqctx.Logger(ctx, s.log)
	key := cacheKey(category, period, w)
	if s.cache != nil {
		var cached []LeaderboardEntry
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.WithError(err).Warn("leaderboard cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	scores, err := s.repo.Scores(ctx, category, w)
	if err != nil {
		return nil, fmt.Errorf("leaderboard scores: %w", err)
	}
	entries := AssignDenseRanks(scores)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries); err != nil {
			log.WithError(err).Warn("leaderboard cache write failed")
		}
	}
	return entries, nil
}

func cacheKey(category model.LeaderboardCategory, period model.LeaderboardPeriod, w repository.Window) string {
	key := fmt.Sprintf("leaderboard:%s:%s", category, period)
	if w.From != nil {
		key += ":" + w.From.Format("20060102")
	}
	return key
}
