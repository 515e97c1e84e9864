package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/service"
)

type SpinHandler struct {
	svc service.SpinService
}

func NewSpinHandler(svc service.SpinService) *SpinHandler {
	return &SpinHandler{svc: svc}
}

type SpinResponse struct {
	RewardCode     string `json:"rewardCode"`
	Label          string `json:"label"`
	RewardType     string `json:"rewardType"`
	RewardValue    int64  `json:"rewardValue"`
	CreditCode     string `json:"creditCode,omitempty"`
	SpinsRemaining int64  `json:"spinsRemaining"`
}

func (h *SpinHandler) Spin(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	res, err := h.svc.Spin(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "failed to spin")
	}
	return c.JSON(http.StatusOK, SpinResponse{
		RewardCode:     res.Reward.Code,
		Label:          res.Reward.Label,
		RewardType:     string(res.Reward.RewardType),
		RewardValue:    res.Reward.RewardValue,
		CreditCode:     res.CreditCode,
		SpinsRemaining: res.SpinsRemaining,
	})
}
