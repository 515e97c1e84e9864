package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

type LeaderboardHandler struct {
	svc service.LeaderboardService
}

func NewLeaderboardHandler(svc service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

type LeaderboardResponse struct {
	Category string                     `json:"category"`
	Period   string                     `json:"period"`
	From     *string                    `json:"from,omitempty"`
	To       *string                    `json:"to,omitempty"`
	Entries  []service.LeaderboardEntry `json:"entries"`
	Viewer   *service.LeaderboardEntry  `json:"viewer"`
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func (h *LeaderboardHandler) Get(c echo.Context) error {
	category := model.LeaderboardSpending
	if q := c.QueryParam("category"); q != "" {
		parsed, err := service.ParseCategory(q)
		if err != nil {
			return serviceError(c, err, "")
		}
		category = parsed
	}
	period := model.PeriodWeekly
	if q := c.QueryParam("period"); q != "" {
		parsed, err := service.ParsePeriod(q)
		if err != nil {
			return serviceError(c, err, "")
		}
		period = parsed
	}
	limit := 0
	if lStr := c.QueryParam("limit"); lStr != "" {
		l, err := strconv.Atoi(lStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid limit"))
		}
		limit = l
	}

	list, err := h.svc.Rank(c.Request().Context(), category, period, limit, currentUID(c))
	if err != nil {
		return serviceError(c, err, "failed to load leaderboard")
	}
	entries := list.Entries
	if entries == nil {
		entries = []service.LeaderboardEntry{}
	}
	return c.JSON(http.StatusOK, LeaderboardResponse{
		Category: string(list.Category),
		Period:   string(list.Period),
		From:     formatOptional(list.From),
		To:       formatOptional(list.To),
		Entries:  entries,
		Viewer:   list.Viewer,
	})
}
