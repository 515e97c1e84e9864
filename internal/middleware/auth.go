package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/handler"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
)

// DevUserHeader carries the caller's uid when no Firebase project is configured.
const DevUserHeader = "X-User-ID"

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware verifies Firebase ID tokens for projectID. An empty projectID selects the
// development mode that trusts DevUserHeader.
func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return &AuthMiddleware{}, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: client}, nil
}

func NewAuthMiddlewareWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

func (m *AuthMiddleware) DevMode() bool {
	return m.verifier == nil
}

// resolve returns the caller's uid, "" when the request carries no credentials.
func (m *AuthMiddleware) resolve(c echo.Context) (string, error) {
	if m.verifier == nil {
		return strings.TrimSpace(c.Request().Header.Get(DevUserHeader)), nil
	}
	authz := c.Request().Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", nil
	}
	tokenStr := strings.TrimPrefix(authz, "Bearer ")
	token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.resolve(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid_token", "invalid ID token"))
		}
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized", "missing credentials"))
		}
		setUID(c, uid)
		return next(c)
	}
}

// OptionalAuth identifies the caller when credentials are present and lets anonymous
// requests through.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid, err := m.resolve(c); err == nil && uid != "" {
			setUID(c, uid)
		}
		return next(c)
	}
}

func setUID(c echo.Context, uid string) {
	c.Set("uid", uid)
	req := c.Request()
	c.SetRequest(req.WithContext(reqctx.WithUID(req.Context(), uid)))
}
