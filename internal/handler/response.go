package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// serviceError maps service sentinels to HTTP responses. fallback is the message used for
// unexpected failures.
func serviceError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_amount", "amount must be positive"))
	case errors.Is(err, service.ErrInvalidReferral):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_referral", err.Error()))
	case errors.Is(err, service.ErrInvalidQuery):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "not found"))
	case errors.Is(err, service.ErrNoSpinsAvailable):
		return c.JSON(http.StatusConflict, NewErrorResponse("no_spins_available", "no spins available"))
	case errors.Is(err, service.ErrInsufficientPoints):
		return c.JSON(http.StatusConflict, NewErrorResponse("insufficient_points", "not enough points"))
	case errors.Is(err, service.ErrConcurrencyConflict):
		return c.JSON(http.StatusConflict, NewErrorResponse("concurrency_conflict", "please retry"))
	}
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", fallback))
}

func currentUID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
