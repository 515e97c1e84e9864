package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/metrics"
	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
)

const (
	StepBracket        = "bracket"
	StepBadges         = "badges"
	StepReferral       = "referral"
	StepReferrerBadges = "referrer_badges"
)

// PurchaseEvent is a completed, paid order reported by checkout.
type PurchaseEvent struct {
	UID         string
	OrderRef    string
	Amount      int64
	PurchasedAt time.Time
}

type PurchaseOutcome struct {
	// Duplicate is set when the order was already processed; nothing else ran.
	Duplicate      bool
	Bracket        *BracketOutcome
	NewBadges      []model.BadgeDefinition
	Referral       *ReferralOutcome
	ReferrerBadges []model.BadgeDefinition
	// Degraded is set when a step after the purchase was recorded failed. The purchase itself
	// still stands.
	Degraded bool
	Failures []string
}

type FulfillmentService interface {
	PurchaseCompleted(ctx context.Context, ev PurchaseEvent) (*PurchaseOutcome, error)
}

type fulfillmentService struct {
	bracket  BracketService
	badges   BadgeService
	referral ReferralService
	notify   NotificationService
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewFulfillmentService(bracket BracketService, badges BadgeService, referral ReferralService, notify NotificationService, log logrus.FieldLogger) FulfillmentService {
	return &fulfillmentService{
		bracket:  bracket,
		badges:   badges,
		referral: referral,
		notify:   notify,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PurchaseCompleted runs the bracket tracker, the badge evaluator and the referral tracker in
// that order. The bracket step records the purchase itself, so its failure is returned to the
// caller and nothing else runs; ErrConcurrencyConflict there means the event should be resent.
// Once the purchase is recorded a failing step is logged and recorded on the outcome, and the
// remaining steps still run.
func (s *fulfillmentService) PurchaseCompleted(ctx context.Context, ev PurchaseEvent) (*PurchaseOutcome, error) {
	if ev.UID == "" {
		return nil, errUIDRequired
	}
	if ev.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if ev.PurchasedAt.IsZero() {
		ev.PurchasedAt = s.now()
	}
	ctx = reqctx.WithUID(ctx, ev.UID)
	log := reqctx.Logger(ctx, s.log).WithField("order_ref", ev.OrderRef)
	out := &PurchaseOutcome{}

	fail := func(step string, err error) {
		out.Degraded = true
		out.Failures = append(out.Failures, step)
		metrics.ObserveDegraded(step)
		log.WithError(err).WithField("step", step).Error("reward step failed")
	}

	bracket, err := s.bracket.RecordPurchase(ctx, ev.UID, ev.OrderRef, ev.Amount, ev.PurchasedAt)
	switch {
	case errors.Is(err, ErrDuplicatePurchase):
		log.Info("purchase already processed")
		out.Duplicate = true
		return out, nil
	case err != nil:
		log.WithError(err).WithField("step", StepBracket).Warn("purchase not recorded")
		return nil, fmt.Errorf("record purchase: %w", err)
	}
	out.Bracket = bracket
	if bracket.CycleCompleted && bracket.RewardAwarded > 0 {
		s.notify.Notify(ctx, ev.UID, NotificationBracketBonus,
			"Spend bracket completed",
			fmt.Sprintf("You earned %d points for your last %d orders.", bracket.RewardAwarded, catalog.CycleSize),
			nil, nil)
	}

	badges, err := s.badges.Evaluate(ctx, ev.UID, ev.PurchasedAt)
	out.NewBadges = badges
	if err != nil {
		fail(StepBadges, err)
	}

	ref, err := s.referral.RecordQualifyingPurchase(ctx, ev.UID, ev.Amount, ev.PurchasedAt)
	if err != nil {
		fail(StepReferral, err)
	} else if ref != nil {
		out.Referral = ref
		referrerBadges, err := s.badges.Evaluate(ctx, ref.ReferrerUID, ev.PurchasedAt)
		out.ReferrerBadges = referrerBadges
		if err != nil {
			fail(StepReferrerBadges, err)
		}
	}
	return out, nil
}
