package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/metrics"
	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

type BracketProgress struct {
	Receipts int
	Spend    int64
}

type BracketOutcome struct {
	CycleCompleted bool
	RewardAwarded  int64
	Progress       BracketProgress
	// TierIndex is the matched tier of a completed cycle, -1 otherwise.
	TierIndex    int
	TierLabel    string
	SpinsGranted int64
}

type BracketService interface {
	RecordPurchase(ctx context.Context, uid, orderRef string, amount int64, at time.Time) (*BracketOutcome, error)
}

type bracketService struct {
	repos         *repository.Repositories
	tiers         catalog.TierTable
	spinsPerCycle int64
	log           logrus.FieldLogger
}

func NewBracketService(repos *repository.Repositories, cat *catalog.Catalog, spinsPerCycle int64, log logrus.FieldLogger) BracketService {
	return &bracketService{repos: repos, tiers: cat.Tiers, spinsPerCycle: spinsPerCycle, log: log}
}

// AdvanceCycle applies one purchase to acc. On the CycleSize-th receipt the cycle spend is
// matched against tiers, the reward is added to earned points and the cycle resets to zero.
// A spend outside every tier completes the cycle with no reward.
func AdvanceCycle(acc model.UserRewardAccount, amount int64, at time.Time, tiers catalog.TierTable) (model.UserRewardAccount, BracketOutcome) {
	next := acc
	next.TotalSpend += amount
	next.PurchaseCount++
	next.CurrentCycleSpend += amount
	next.CurrentCycleReceipts++
	ts := at
	next.LastPurchaseAt = &ts

	out := BracketOutcome{TierIndex: -1}
	if next.CurrentCycleReceipts >= catalog.CycleSize {
		out.CycleCompleted = true
		idx, tier := tiers.Match(next.CurrentCycleSpend)
		out.TierIndex = idx
		if idx >= 0 {
			out.TierLabel = tier.Label
			out.RewardAwarded = tier.RewardValue
		}
		next.PointsEarned += out.RewardAwarded
		next.CurrentCycleSpend = 0
		next.CurrentCycleReceipts = 0
	}
	out.Progress = BracketProgress{Receipts: next.CurrentCycleReceipts, Spend: next.CurrentCycleSpend}
	return next, out
}

// RecordPurchase advances the buyer's bracket cycle. The account write is conditional on the
// version read; a lost race is retried once against fresh state.
func (s *bracketService) RecordPurchase(ctx context.Context, uid, orderRef string, amount int64, at time.Time) (*BracketOutcome, error) {
	if uid == "" {
		return nil, errUIDRequired
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if orderRef == "" {
		orderRef = uuid.NewString()
	}
	log := reqctx.Logger(ctx, s.log).WithField("order_ref", orderRef)

	for attempt := 0; attempt < 2; attempt++ {
		acc, err := s.repos.Accounts.Get(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("load reward account: %w", err)
		}
		next, out := AdvanceCycle(*acc, amount, at, s.tiers)

		commit := &repository.PurchaseCommit{
			Account: next,
			Purchase: model.PurchaseRecord{
				UID:         uid,
				OrderRef:    orderRef,
				Amount:      amount,
				PurchasedAt: at,
			},
		}
		if out.CycleCompleted {
			if out.RewardAwarded > 0 {
				commit.Entries = append(commit.Entries, model.RewardTransaction{
					UID:         uid,
					Kind:        model.TransactionKindBracketBonus,
					Amount:      out.RewardAwarded,
					Description: fmt.Sprintf("spend bracket %s completed", tierName(out)),
					CreatedAt:   at,
				})
			}
			commit.GrantSpins = s.spinsPerCycle
		}

		err = s.repos.Accounts.CommitPurchase(ctx, commit)
		switch {
		case err == nil:
			if out.CycleCompleted {
				out.SpinsGranted = commit.GrantSpins
				metrics.ObserveCycleCompleted(tierName(out))
				log.WithFields(logrus.Fields{
					"tier":   out.TierIndex,
					"reward": out.RewardAwarded,
				}).Info("bracket cycle completed")
			}
			return &out, nil
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrDuplicatePurchase
		case errors.Is(err, repository.ErrVersionConflict):
			metrics.ObserveConflict()
			log.WithField("attempt", attempt+1).Debug("reward account changed concurrently")
		default:
			return nil, fmt.Errorf("commit purchase: %w", err)
		}
	}
	return nil, ErrConcurrencyConflict
}

func tierName(out BracketOutcome) string {
	switch {
	case out.TierLabel != "":
		return out.TierLabel
	case out.TierIndex >= 0:
		return fmt.Sprintf("tier-%d", out.TierIndex)
	default:
		return "none"
	}
}
