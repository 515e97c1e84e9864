package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shinyyama/storefront-rewards/internal/config"
	"github.com/shinyyama/storefront-rewards/internal/metrics"
	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

// ReferralOutcome is returned when a purchase converted a pending referral.
type ReferralOutcome struct {
	LinkID        uint64
	ReferrerUID   string
	RewardPaid    bool
	CreditsIssued int
	CreditCodes   []string
}

type ReferralService interface {
	CreateLink(ctx context.Context, referrerUID, refereeUID string) (*model.ReferralLink, error)
	// RecordQualifyingPurchase converts the buyer's pending referral when the purchase
	// qualifies. It returns nil when nothing converted.
	RecordQualifyingPurchase(ctx context.Context, uid string, amount int64, at time.Time) (*ReferralOutcome, error)
}

type referralService struct {
	repos  *repository.Repositories
	cfg    config.RewardConfig
	notify NotificationService
	log    logrus.FieldLogger
}

func NewReferralService(repos *repository.Repositories, cfg config.RewardConfig, notify NotificationService, log logrus.FieldLogger) ReferralService {
	return &referralService{repos: repos, cfg: cfg, notify: notify, log: log}
}

func (s *referralService) CreateLink(ctx context.Context, referrerUID, refereeUID string) (*model.ReferralLink, error) {
	if referrerUID == "" || refereeUID == "" || referrerUID == refereeUID {
		return nil, ErrInvalidReferral
	}
	link := &model.ReferralLink{
		ReferrerUID: referrerUID,
		RefereeUID:  refereeUID,
		Status:      model.ReferralStatusPending,
	}
	if err := s.repos.Referrals.Create(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("referee already referred: %w", ErrInvalidReferral)
		}
		return nil, err
	}
	return link, nil
}

func (s *referralService) RecordQualifyingPurchase(ctx context.Context, uid string, amount int64, at time.Time) (*ReferralOutcome, error) {
	if uid == "" {
		return nil, errUIDRequired
	}
	if amount < s.cfg.MinimumReferralOrderAmount {
		return nil, nil
	}
	link, err := s.repos.Referrals.FindPendingByReferee(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending referral: %w", err)
	}
	if s.cfg.ReferralFirstPurchaseOnly {
		n, err := s.repos.Purchases.CountByUser(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("count purchases: %w", err)
		}
		if n > 1 {
			return nil, nil
		}
	}

	credits := make([]model.RewardCredit, 0, s.cfg.ReferralFreeDeliveryCredits)
	codes := make([]string, 0, s.cfg.ReferralFreeDeliveryCredits)
	for i := 0; i < s.cfg.ReferralFreeDeliveryCredits; i++ {
		code := uuid.NewString()
		codes = append(codes, code)
		credits = append(credits, model.RewardCredit{
			Code:       code,
			UID:        link.ReferrerUID,
			CreditType: model.RewardTypeFreeDelivery,
			Value:      1,
			Source:     "referral",
			CreatedAt:  at,
		})
	}
	res, err := s.repos.Referrals.Complete(ctx, &repository.ReferralCompletion{
		LinkID:      link.ID,
		ReferrerUID: link.ReferrerUID,
		CompletedAt: at,
		MaxPaid:     s.cfg.MaxReferralsPerCustomer,
		Credits:     credits,
		PayoutEntry: model.RewardTransaction{
			UID:         link.ReferrerUID,
			Kind:        model.TransactionKindReferralBonus,
			Amount:      int64(len(credits)),
			Description: fmt.Sprintf("referral of %s converted", uid),
			CreatedAt:   at,
		},
		CapEntry: model.RewardTransaction{
			UID:         link.ReferrerUID,
			Kind:        model.TransactionKindReferralCapReached,
			Description: fmt.Sprintf("referral of %s converted after cap", uid),
			CreatedAt:   at,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("complete referral: %w", err)
	}
	if !res.Completed {
		return nil, nil
	}

	metrics.ObserveReferralConversion(res.Paid)
	out := &ReferralOutcome{LinkID: link.ID, ReferrerUID: link.ReferrerUID, RewardPaid: res.Paid}
	reqctx.Logger(ctx, s.log).WithFields(logrus.Fields{
		"referrer": link.ReferrerUID,
		"paid":     res.Paid,
	}).Info("referral converted")
	if res.Paid {
		out.CreditsIssued = len(credits)
		out.CreditCodes = codes
		s.notify.Notify(ctx, link.ReferrerUID, NotificationReferral,
			"Referral reward",
			fmt.Sprintf("A friend you referred placed an order. %d free deliveries were added.", len(credits)),
			nil, nil)
	}
	return out, nil
}
