package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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

// RandomSource yields uniform draws in [0,1). It must be safe for concurrent use.
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRandom draws from the process-wide math/rand source.
var DefaultRandom RandomSource = globalRand{}

type SpinResult struct {
	Reward         catalog.SpinReward
	CreditCode     string
	SpinsRemaining int64
}

type SpinService interface {
	Spin(ctx context.Context, uid string) (*SpinResult, error)
	GrantSpins(ctx context.Context, uid string, spins int64) error
}

type spinService struct {
	repos   *repository.Repositories
	rewards []catalog.SpinReward
	rnd     RandomSource
	notify  NotificationService
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewSpinService(repos *repository.Repositories, cat *catalog.Catalog, rnd RandomSource, notify NotificationService, log logrus.FieldLogger) SpinService {
	if rnd == nil {
		rnd = DefaultRandom
	}
	return &spinService{
		repos:   repos,
		rewards: cat.ActiveSpinRewards(),
		rnd:     rnd,
		notify:  notify,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Spin draws a prize and consumes one spin. The allowance decrement and the prize credit
// commit together; with no spin left nothing changes.
func (s *spinService) Spin(ctx context.Context, uid string) (*SpinResult, error) {
	if uid == "" {
		return nil, errUIDRequired
	}
	reward, ok := catalog.SelectSpinReward(s.rnd.Float64()*100, s.rewards)
	if !ok {
		return nil, errors.New("no spin rewards configured")
	}
	now := s.now()

	c := &repository.SpinConsumption{
		UID:         uid,
		RewardType:  reward.RewardType,
		RewardValue: reward.RewardValue,
		Entry: model.RewardTransaction{
			UID:         uid,
			Kind:        model.TransactionKindSpinWin,
			Amount:      reward.RewardValue,
			Description: fmt.Sprintf("spin won %s", reward.Code),
			CreatedAt:   now,
		},
	}
	res := &SpinResult{Reward: reward}
	if reward.RewardType != model.RewardTypePoints {
		c.Credit = &model.RewardCredit{
			Code:       uuid.NewString(),
			UID:        uid,
			CreditType: reward.RewardType,
			Value:      reward.RewardValue,
			Source:     "spin",
			CreatedAt:  now,
		}
		res.CreditCode = c.Credit.Code
	}

	if err := s.repos.Spins.Consume(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSpinsAvailable
		}
		return nil, fmt.Errorf("consume spin: %w", err)
	}
	metrics.ObserveSpin(string(reward.RewardType))
	reqctx.Logger(ctx, s.log).WithField("reward", reward.Code).Info("spin consumed")

	var credit *string
	if res.CreditCode != "" {
		credit = strPtr(res.CreditCode)
	}
	s.notify.Notify(ctx, uid, NotificationSpinWin, "Spin prize", reward.Label, nil, credit)

	if sa, err := s.repos.Spins.Get(ctx, uid); err == nil {
		res.SpinsRemaining = sa.SpinsAvailable
	}
	return res, nil
}

func (s *spinService) GrantSpins(ctx context.Context, uid string, spins int64) error {
	if uid == "" {
		return errUIDRequired
	}
	if spins <= 0 {
		return ErrInvalidAmount
	}
	return s.repos.Spins.Grant(ctx, uid, spins)
}
