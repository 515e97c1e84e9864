package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/service"
)

type RewardsHandler struct {
	svc service.AccountService
}

func NewRewardsHandler(svc service.AccountService) *RewardsHandler {
	return &RewardsHandler{svc: svc}
}

type CycleProgressResponse struct {
	Receipts  int   `json:"receipts"`
	CycleSize int   `json:"cycleSize"`
	Spend     int64 `json:"spend"`
}

type BadgeAwardResponse struct {
	Code     string `json:"code"`
	EarnedAt string `json:"earnedAt"`
}

type CreditResponse struct {
	Code      string `json:"code"`
	Type      string `json:"type"`
	Value     int64  `json:"value"`
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
}

type TransactionResponse struct {
	ID          uint64 `json:"id"`
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type RewardsResponse struct {
	UID             string                `json:"uid"`
	TotalSpend      int64                 `json:"totalSpend"`
	PurchaseCount   int64                 `json:"purchaseCount"`
	PointsEarned    int64                 `json:"pointsEarned"`
	PointsRedeemed  int64                 `json:"pointsRedeemed"`
	PointsAvailable int64                 `json:"pointsAvailable"`
	Cycle           CycleProgressResponse `json:"cycle"`
	LastPurchaseAt  *string               `json:"lastPurchaseAt,omitempty"`
	SpinsAvailable  int64                 `json:"spinsAvailable"`
	Badges          []BadgeAwardResponse  `json:"badges"`
	Credits         []CreditResponse      `json:"credits"`
	Transactions    []TransactionResponse `json:"transactions"`
}

func toCreditResponse(cr model.RewardCredit) CreditResponse {
	return CreditResponse{
		Code:      cr.Code,
		Type:      string(cr.CreditType),
		Value:     cr.Value,
		Source:    cr.Source,
		CreatedAt: cr.CreatedAt.Format(time.RFC3339),
	}
}

func toRewardsResponse(s *service.Snapshot) RewardsResponse {
	acc := s.Account
	resp := RewardsResponse{
		UID:             acc.UID,
		TotalSpend:      acc.TotalSpend,
		PurchaseCount:   acc.PurchaseCount,
		PointsEarned:    acc.PointsEarned,
		PointsRedeemed:  acc.PointsRedeemed,
		PointsAvailable: acc.PointsAvailable(),
		Cycle: CycleProgressResponse{
			Receipts:  acc.CurrentCycleReceipts,
			CycleSize: s.CycleSize,
			Spend:     acc.CurrentCycleSpend,
		},
		SpinsAvailable: s.Spins.SpinsAvailable,
		Badges:         make([]BadgeAwardResponse, 0, len(s.Badges)),
		Credits:        make([]CreditResponse, 0, len(s.Credits)),
		Transactions:   make([]TransactionResponse, 0, len(s.Transactions)),
	}
	if acc.LastPurchaseAt != nil {
		v := acc.LastPurchaseAt.Format(time.RFC3339)
		resp.LastPurchaseAt = &v
	}
	for _, b := range s.Badges {
		resp.Badges = append(resp.Badges, BadgeAwardResponse{Code: b.BadgeCode, EarnedAt: b.EarnedAt.Format(time.RFC3339)})
	}
	for _, cr := range s.Credits {
		resp.Credits = append(resp.Credits, toCreditResponse(cr))
	}
	for _, tx := range s.Transactions {
		resp.Transactions = append(resp.Transactions, TransactionResponse{
			ID:          tx.ID,
			Kind:        string(tx.Kind),
			Amount:      tx.Amount,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func (h *RewardsHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	snap, err := h.svc.Snapshot(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "failed to load rewards")
	}
	return c.JSON(http.StatusOK, toRewardsResponse(snap))
}

func (h *RewardsHandler) RedeemPoints(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Points int64  `json:"points"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	acc, err := h.svc.RedeemPoints(c.Request().Context(), uid, body.Points, body.Reason)
	if err != nil {
		return serviceError(c, err, "failed to redeem points")
	}
	return c.JSON(http.StatusOK, map[string]int64{
		"pointsEarned":    acc.PointsEarned,
		"pointsRedeemed":  acc.PointsRedeemed,
		"pointsAvailable": acc.PointsAvailable(),
	})
}

func (h *RewardsHandler) RedeemCredit(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "missing credit code"))
	}
	if err := h.svc.RedeemCredit(c.Request().Context(), uid, code); err != nil {
		return serviceError(c, err, "failed to redeem credit")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
