package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/service"
)

type BadgeHandler struct {
	svc service.BadgeService
}

func NewBadgeHandler(svc service.BadgeService) *BadgeHandler {
	return &BadgeHandler{svc: svc}
}

type BadgeResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Requirement int64  `json:"requirement"`
	BonusPoints int64  `json:"bonusPoints"`
	Tier        int    `json:"tier"`
}

func (h *BadgeHandler) List(c echo.Context) error {
	defs := h.svc.Definitions()
	resp := make([]BadgeResponse, 0, len(defs))
	for _, d := range defs {
		resp = append(resp, BadgeResponse{
			Code:        d.Code,
			Name:        d.Name,
			Description: d.Description,
			Category:    string(d.Category),
			Requirement: d.Requirement,
			BonusPoints: d.BonusPoints,
			Tier:        d.Tier,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"badges": resp})
}
