package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/repository"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID         uint64  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	BadgeCode  *string `json:"badgeCode,omitempty"`
	CreditCode *string `json:"creditCode,omitempty"`
	Read       bool    `json:"read"`
	CreatedAt  string  `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Type:       string(n.Type),
		Title:      n.Title,
		Body:       n.Body,
		BadgeCode:  n.BadgeCode,
		CreditCode: n.CreditCode,
		Read:       n.ReadAt != nil,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	filter := repository.NotificationFilter{
		UnreadOnly: c.QueryParam("unread_only") != "false",
		Limit:      20,
	}
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			filter.Limit = lParsed
		}
	}
	types, err := parseNotificationTypes(c.QueryParam("type"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_type", err.Error()))
	}
	filter.Types = types
	list, unreadCount, err := h.svc.List(c.Request().Context(), uid, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch notifications"))
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": resp,
		"unreadCount":   unreadCount,
	})
}

// parseNotificationTypes reads a comma separated list such as "badge_awarded,spin_win".
func parseNotificationTypes(raw string) ([]model.NotificationType, error) {
	if raw == "" {
		return nil, nil
	}
	var out []model.NotificationType
	for _, part := range strings.Split(raw, ",") {
		t := model.NotificationType(strings.ToLower(strings.TrimSpace(part)))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, fmt.Errorf("unknown notification type %q", part)
		}
		out = append(out, t)
	}
	return out, nil
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), uid); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to mark read"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
