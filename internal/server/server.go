package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/shinyyama/storefront-rewards/internal/handler"
	"github.com/shinyyama/storefront-rewards/internal/metrics"
	appmw "github.com/shinyyama/storefront-rewards/internal/middleware"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

// Deps is everything the HTTP layer needs. Auth and RateLimiter are required; an empty
// InternalToken closes the /internal routes.
type Deps struct {
	Accounts      service.AccountService
	Badges        service.BadgeService
	Spins         service.SpinService
	Referrals     service.ReferralService
	Leaderboard   service.LeaderboardService
	Notifications service.NotificationService
	Fulfillment   service.FulfillmentService

	Auth          *appmw.AuthMiddleware
	RateLimiter   *appmw.RateLimiter
	InternalToken string
	Log           logrus.FieldLogger

	GitSHA    string
	BuildTime string
}

type Server struct {
	e *echo.Echo
}

func allowOrigin(origin string) (bool, error) {
	low := strings.ToLower(origin)
	if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
		strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
		return true, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	host := u.Hostname()
	if strings.HasSuffix(host, "vercel.app") {
		return true, nil
	}
	return false, nil
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(appmw.RequestID)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", echo.HeaderXRequestID, appmw.DevUserHeader},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	rewardsHandler := handler.NewRewardsHandler(d.Accounts)
	spinHandler := handler.NewSpinHandler(d.Spins)
	leaderboardHandler := handler.NewLeaderboardHandler(d.Leaderboard)
	badgeHandler := handler.NewBadgeHandler(d.Badges)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	internalHandler := handler.NewInternalHandler(d.Fulfillment, d.Referrals, d.Spins)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.GitSHA,
			"build_time": d.BuildTime,
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.GET("/me/rewards", rewardsHandler.Get, d.Auth.RequireAuth)
	api.POST("/me/points/redeem", rewardsHandler.RedeemPoints, d.Auth.RequireAuth)
	api.POST("/me/credits/:code/redeem", rewardsHandler.RedeemCredit, d.Auth.RequireAuth)
	api.POST("/me/spin", spinHandler.Spin, d.Auth.RequireAuth, d.RateLimiter.Handler)
	api.GET("/me/notifications", notificationHandler.List, d.Auth.RequireAuth)
	api.POST("/me/notifications/read", notificationHandler.MarkAllRead, d.Auth.RequireAuth)
	api.GET("/leaderboard", leaderboardHandler.Get, d.Auth.OptionalAuth)
	api.GET("/badges", badgeHandler.List)

	internal := e.Group("/internal", appmw.InternalToken(d.InternalToken))
	internal.POST("/purchases/complete", internalHandler.PurchaseCompleted)
	internal.POST("/referrals", internalHandler.CreateReferral)
	internal.POST("/spins/grant", internalHandler.GrantSpins)

	if d.Log != nil {
		d.Log.WithField("dev_auth", d.Auth.DevMode()).Info("routes registered")
	}
	return &Server{e: e}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
