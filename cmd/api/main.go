package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/shinyyama/storefront-rewards/internal/cache"
	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/config"
	"github.com/shinyyama/storefront-rewards/internal/db"
	"github.com/shinyyama/storefront-rewards/internal/logging"
	appmw "github.com/shinyyama/storefront-rewards/internal/middleware"
	"github.com/shinyyama/storefront-rewards/internal/repository"
	"github.com/shinyyama/storefront-rewards/internal/server"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}
	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func openRepositories(cfg *config.Config, log logrus.FieldLogger) (*repository.Repositories, error) {
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory ledger store; data is lost on restart")
		return repository.NewMemoryRepositories(), nil
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}
	return repository.NewGormRepositories(conn), nil
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.Rewards.CatalogPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Rewards.Location()
	if err != nil {
		return err
	}

	repos, err := openRepositories(cfg, log)
	if err != nil {
		return err
	}
	if err := repos.Badges.SyncDefinitions(ctx, cat.Badges); err != nil {
		return err
	}

	var ranking service.RankingCache
	if lc := cache.NewLeaderboardCache(cfg.RedisAddr, cfg.LeaderboardCacheTTL); lc != nil {
		if err := lc.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable; leaderboard served without cache")
		}
		defer lc.Close()
		ranking = lc
	}

	notify := service.NewNotificationService(repos.Notifications, log)
	bracket := service.NewBracketService(repos, cat, cfg.Rewards.SpinsPerCycle, log)
	badges := service.NewBadgeService(repos, cat, loc, notify, log)
	referrals := service.NewReferralService(repos, cfg.Rewards, notify, log)
	spins := service.NewSpinService(repos, cat, nil, notify, log)

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		return err
	}
	if authMw.DevMode() {
		log.Warnf("FIREBASE_PROJECT_ID not set; trusting %s header", appmw.DevUserHeader)
	}
	if cfg.InternalAPIToken == "" {
		log.Warn("INTERNAL_API_TOKEN not set; /internal routes are disabled")
	}

	srv := server.New(server.Deps{
		Accounts:      service.NewAccountService(repos, log),
		Badges:        badges,
		Spins:         spins,
		Referrals:     referrals,
		Leaderboard:   service.NewLeaderboardService(repos.Leaderboard, ranking, log),
		Notifications: notify,
		Fulfillment:   service.NewFulfillmentService(bracket, badges, referrals, notify, log),
		Auth:          authMw,
		RateLimiter:   appmw.NewRateLimiter(cfg.SpinRatePerSecond, cfg.SpinRateBurst, log),
		InternalToken: cfg.InternalAPIToken,
		Log:           log,
		GitSHA:        os.Getenv("GIT_SHA"),
		BuildTime:     os.Getenv("BUILD_TIME"),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("starting server")
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
