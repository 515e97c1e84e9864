package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

const snapshotTransactions = 20

// Snapshot is everything a dashboard shows about one customer's rewards.
type Snapshot struct {
	Account      model.UserRewardAccount
	CycleSize    int
	Badges       []model.UserBadgeAward
	Spins        model.UserSpinAllowance
	Credits      []model.RewardCredit
	Transactions []model.RewardTransaction
}

type AccountService interface {
	Snapshot(ctx context.Context, uid string) (*Snapshot, error)
	RedeemPoints(ctx context.Context, uid string, points int64, reason string) (*model.UserRewardAccount, error)
	RedeemCredit(ctx context.Context, uid, code string) error
}

type accountService struct {
	repos *repository.Repositories
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewAccountService(repos *repository.Repositories, log logrus.FieldLogger) AccountService {
	return &accountService{
		repos: repos,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Snapshot(ctx context.Context, uid string) (*Snapshot, error) {
	if uid == "" {
		return nil, errUIDRequired
	}
	acc, err := s.repos.Accounts.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load reward account: %w", err)
	}
	badges, err := s.repos.Badges.ListAwards(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	spins, err := s.repos.Spins.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load spins: %w", err)
	}
	credits, err := s.repos.Credits.ListByUser(ctx, uid, false)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	txs, err := s.repos.Transactions.ListByUser(ctx, uid, snapshotTransactions)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return &Snapshot{
		Account:      *acc,
		CycleSize:    catalog.CycleSize,
		Badges:       badges,
		Spins:        *spins,
		Credits:      credits,
		Transactions: txs,
	}, nil
}

// RedeemPoints spends available points. The balance check and the debit are one
// conditional write, so the available balance never goes negative.
func (s *accountService) RedeemPoints(ctx context.Context, uid string, points int64, reason string) (*model.UserRewardAccount, error) {
	if uid == "" {
		return nil, errUIDRequired
	}
	if points <= 0 {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		reason = "points redeemed"
	}
	entry := &model.RewardTransaction{
		UID:         uid,
		Kind:        model.TransactionKindRedemption,
		Amount:      -points,
		Description: reason,
		CreatedAt:   s.now(),
	}
	if err := s.repos.Accounts.Redeem(ctx, uid, points, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientPoints
		}
		return nil, fmt.Errorf("redeem points: %w", err)
	}
	reqctx.Logger(ctx, s.log).WithField("points", points).Info("points redeemed")
	return s.repos.Accounts.Get(ctx, uid)
}

func (s *accountService) RedeemCredit(ctx context.Context, uid, code string) error {
	if uid == "" {
		return errUIDRequired
	}
	if err := s.repos.Credits.Redeem(ctx, uid, code, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("redeem credit: %w", err)
	}
	return nil
}
