package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/config"
	"github.com/shinyyama/storefront-rewards/internal/db"
	"github.com/shinyyama/storefront-rewards/internal/logging"
	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/repository"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

type seedPurchase struct {
	UID     string
	Amount  int64
	DaysAgo int
}

var (
	demoReferrals = [][2]string{
		{"demo-alice", "demo-bob"},
		{"demo-alice", "demo-carol"},
		{"demo-dave", "demo-erin"},
	}
	demoSpins = map[string]int64{
		"demo-alice": 3,
		"demo-bob":   1,
	}
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.LogLevel)
	if err := run(context.Background(), cfg, log); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	cat, err := catalog.Load(cfg.Rewards.CatalogPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Rewards.Location()
	if err != nil {
		return err
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	repos := repository.NewGormRepositories(gdb)

	if err := repos.Badges.SyncDefinitions(ctx, cat.Badges); err != nil {
		return fmt.Errorf("sync badges: %w", err)
	}
	log.WithField("badges", len(cat.Badges)).Info("badge catalog synced")

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Info("referral links already exist; skipping demo data (set FORCE_SEED=true to override)")
		return nil
	}

	notify := service.NewNotificationService(repos.Notifications, log)
	bracket := service.NewBracketService(repos, cat, cfg.Rewards.SpinsPerCycle, log)
	badges := service.NewBadgeService(repos, cat, loc, notify, log)
	referrals := service.NewReferralService(repos, cfg.Rewards, notify, log)
	spins := service.NewSpinService(repos, cat, nil, notify, log)
	fulfillment := service.NewFulfillmentService(bracket, badges, referrals, notify, log)

	for _, pair := range demoReferrals {
		if _, err := referrals.CreateLink(ctx, pair[0], pair[1]); err != nil {
			if errors.Is(err, service.ErrInvalidReferral) {
				log.WithError(err).Debug("referral link exists")
				continue
			}
			return fmt.Errorf("create referral %s -> %s: %w", pair[0], pair[1], err)
		}
	}
	for uid, n := range demoSpins {
		if err := spins.GrantSpins(ctx, uid, n); err != nil {
			return fmt.Errorf("grant spins to %s: %w", uid, err)
		}
	}

	now := time.Now().UTC()
	purchases := buildSeedPurchases()
	for idx, p := range purchases {
		ev := service.PurchaseEvent{
			UID:         p.UID,
			OrderRef:    fmt.Sprintf("seed-%s-%03d", p.UID, idx+1),
			Amount:      p.Amount,
			PurchasedAt: now.AddDate(0, 0, -p.DaysAgo),
		}
		out, err := fulfillment.PurchaseCompleted(ctx, ev)
		if err != nil {
			return fmt.Errorf("purchase %s: %w", ev.OrderRef, err)
		}
		if out.Degraded {
			log.WithField("order_ref", ev.OrderRef).WithField("failures", out.Failures).Warn("seed purchase degraded")
		}
	}

	log.WithFields(logrus.Fields{
		"referrals": len(demoReferrals),
		"purchases": len(purchases),
	}).Info("seeded demo rewards")
	return nil
}

func buildSeedPurchases() []seedPurchase {
	var out []seedPurchase
	// alice completes a full cycle landing in the silver tier
	for i := 0; i < 10; i++ {
		out = append(out, seedPurchase{UID: "demo-alice", Amount: 2200, DaysAgo: 12 - i})
	}
	for i, amount := range []int64{150, 480, 920} {
		out = append(out, seedPurchase{UID: "demo-bob", Amount: amount, DaysAgo: 3 - i})
	}
	out = append(out,
		seedPurchase{UID: "demo-carol", Amount: 60, DaysAgo: 1},
		seedPurchase{UID: "demo-erin", Amount: 5400, DaysAgo: 0},
	)
	return out
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.ReferralLink{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count referral links: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
