package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/service"
)

// InternalHandler serves the routes checkout and signup call after their own work is done.
type InternalHandler struct {
	fulfillment service.FulfillmentService
	referral    service.ReferralService
	spins       service.SpinService
}

func NewInternalHandler(fulfillment service.FulfillmentService, referral service.ReferralService, spins service.SpinService) *InternalHandler {
	return &InternalHandler{fulfillment: fulfillment, referral: referral, spins: spins}
}

type PurchaseCompletedRequest struct {
	UID         string     `json:"uid"`
	OrderRef    string     `json:"orderRef"`
	Amount      int64      `json:"amount"`
	PurchasedAt *time.Time `json:"purchasedAt"`
}

type BracketResponse struct {
	CycleCompleted bool   `json:"cycleCompleted"`
	RewardAwarded  int64  `json:"rewardAwarded"`
	Receipts       int    `json:"receipts"`
	CycleSpend     int64  `json:"cycleSpend"`
	Tier           string `json:"tier,omitempty"`
	SpinsGranted   int64  `json:"spinsGranted"`
}

type ReferralResponse struct {
	ReferrerUID   string `json:"referrerUid"`
	RewardPaid    bool   `json:"rewardPaid"`
	CreditsIssued int    `json:"creditsIssued"`
}

type PurchaseOutcomeResponse struct {
	Duplicate      bool              `json:"duplicate"`
	Bracket        *BracketResponse  `json:"bracket,omitempty"`
	NewBadges      []string          `json:"newBadges"`
	Referral       *ReferralResponse `json:"referral,omitempty"`
	ReferrerBadges []string          `json:"referrerBadges,omitempty"`
	Degraded       bool              `json:"degraded"`
	Failures       []string          `json:"failures,omitempty"`
}

func toPurchaseOutcomeResponse(out *service.PurchaseOutcome) PurchaseOutcomeResponse {
	resp := PurchaseOutcomeResponse{
		Duplicate: out.Duplicate,
		NewBadges: make([]string, 0, len(out.NewBadges)),
		Degraded:  out.Degraded,
		Failures:  out.Failures,
	}
	if b := out.Bracket; b != nil {
		resp.Bracket = &BracketResponse{
			CycleCompleted: b.CycleCompleted,
			RewardAwarded:  b.RewardAwarded,
			Receipts:       b.Progress.Receipts,
			CycleSpend:     b.Progress.Spend,
			Tier:           b.TierLabel,
			SpinsGranted:   b.SpinsGranted,
		}
	}
	for _, d := range out.NewBadges {
		resp.NewBadges = append(resp.NewBadges, d.Code)
	}
	if r := out.Referral; r != nil {
		resp.Referral = &ReferralResponse{ReferrerUID: r.ReferrerUID, RewardPaid: r.RewardPaid, CreditsIssued: r.CreditsIssued}
		for _, d := range out.ReferrerBadges {
			resp.ReferrerBadges = append(resp.ReferrerBadges, d.Code)
		}
	}
	return resp
}

func (h *InternalHandler) PurchaseCompleted(c echo.Context) error {
	var body PurchaseCompletedRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.UID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "uid is required"))
	}
	ev := service.PurchaseEvent{UID: body.UID, OrderRef: body.OrderRef, Amount: body.Amount}
	if body.PurchasedAt != nil {
		ev.PurchasedAt = body.PurchasedAt.UTC()
	}
	out, err := h.fulfillment.PurchaseCompleted(c.Request().Context(), ev)
	if err != nil {
		return serviceError(c, err, "failed to process purchase")
	}
	status := http.StatusOK
	if out.Duplicate {
		status = http.StatusAccepted
	}
	return c.JSON(status, toPurchaseOutcomeResponse(out))
}

func (h *InternalHandler) CreateReferral(c echo.Context) error {
	var body struct {
		ReferrerUID string `json:"referrerUid"`
		RefereeUID  string `json:"refereeUid"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	link, err := h.referral.CreateLink(c.Request().Context(), body.ReferrerUID, body.RefereeUID)
	if err != nil {
		return serviceError(c, err, "failed to create referral")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":          link.ID,
		"referrerUid": link.ReferrerUID,
		"refereeUid":  link.RefereeUID,
		"status":      link.Status,
	})
}

func (h *InternalHandler) GrantSpins(c echo.Context) error {
	var body struct {
		UID   string `json:"uid"`
		Spins int64  `json:"spins"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.UID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "uid is required"))
	}
	if err := h.spins.GrantSpins(c.Request().Context(), body.UID, body.Spins); err != nil {
		return serviceError(c, err, "failed to grant spins")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
