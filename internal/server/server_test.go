package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyyama/storefront-rewards/internal/catalog"
	"github.com/shinyyama/storefront-rewards/internal/config"
	appmw "github.com/shinyyama/storefront-rewards/internal/middleware"
	"github.com/shinyyama/storefront-rewards/internal/repository"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

const testToken = "s3cret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	repos := repository.NewMemoryRepositories()
	cfg := config.RewardConfig{MinimumReferralOrderAmount: 100, MaxReferralsPerCustomer: 10, ReferralFreeDeliveryCredits: 3, SpinsPerCycle: 1}

	notify := service.NewNotificationService(repos.Notifications, log)
	bracket := service.NewBracketService(repos, cat, cfg.SpinsPerCycle, log)
	badges := service.NewBadgeService(repos, cat, time.UTC, notify, log)
	referrals := service.NewReferralService(repos, cfg, notify, log)
	spins := service.NewSpinService(repos, cat, nil, notify, log)

	srv := New(Deps{
		Accounts:      service.NewAccountService(repos, log),
		Badges:        badges,
		Spins:         spins,
		Referrals:     referrals,
		Leaderboard:   service.NewLeaderboardService(repos.Leaderboard, nil, log),
		Notifications: notify,
		Fulfillment:   service.NewFulfillmentService(bracket, badges, referrals, notify, log),
		Auth:          appmw.NewAuthMiddlewareWithVerifier(nil),
		RateLimiter:   appmw.NewRateLimiter(1, 1, log),
		InternalToken: testToken,
		Log:           log,
		GitSHA:        "abc123",
	})
	return srv.Handler()
}

func request(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := request(h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"git_sha":"abc123"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = request(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInternalRoutesRequireToken(t *testing.T) {
	h := newTestServer(t)
	body := `{"uid":"u1","orderRef":"o-1","amount":1200,"purchasedAt":"2026-03-04T12:00:00Z"}`

	rec := request(h, http.MethodPost, "/internal/purchases/complete", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(h, http.MethodPost, "/internal/purchases/complete", body, map[string]string{appmw.InternalTokenHeader: testToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(h, http.MethodGet, "/api/me/rewards", "", map[string]string{appmw.DevUserHeader: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pointsAvailable":50`)
}

func TestMeRoutesRequireAuth(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/api/me/rewards", "/api/me/notifications"} {
		rec := request(h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := request(h, http.MethodGet, "/api/leaderboard", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSpinIsRateLimited(t *testing.T) {
	h := newTestServer(t)
	headers := map[string]string{appmw.DevUserHeader: "u1"}

	rec := request(h, http.MethodPost, "/api/me/spin", "", headers)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = request(h, http.MethodPost, "/api/me/spin", "", headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"rate_limited","message":"too many requests"}}`, rec.Body.String())
}

func TestCORSPreflightAllowsRequestID(t *testing.T) {
	h := newTestServer(t)
	rec := request(h, http.MethodOptions, "/api/me/rewards", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  http.MethodGet,
		"Access-Control-Request-Headers": "X-Request-ID",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "x-request-id")
}
