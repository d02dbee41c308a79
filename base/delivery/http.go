package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fractionxyz/goapi/domain"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// statusOverrides maps domain guard failures onto http statuses so handlers
// can pass errors through without per-endpoint switch statements.
var statusOverrides = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUnknownProposal, http.StatusNotFound},
	{domain.ErrNotOwner, http.StatusForbidden},
	{domain.ErrBadParamInput, http.StatusBadRequest},
	{domain.ErrInvalidAddress, http.StatusBadRequest},
	{domain.ErrInvalidNonce, http.StatusMethodNotAllowed},
	{domain.ErrInvalidSignature, http.StatusMethodNotAllowed},
	{domain.ErrInvalidNumberFormat, http.StatusBadRequest},
	{domain.ErrInvalidPage, http.StatusBadRequest},
	{domain.ErrInvalidStateForOperation, http.StatusConflict},
	{domain.ErrDeadlineNotReached, http.StatusConflict},
	{domain.ErrDeadlinePassed, http.StatusConflict},
	{domain.ErrIncorrectPayment, http.StatusConflict},
	{domain.ErrBidTooLow, http.StatusConflict},
	{domain.ErrZeroPayment, http.StatusConflict},
	{domain.ErrInsufficientAvailableUnits, http.StatusConflict},
	{domain.ErrDuplicateItem, http.StatusConflict},
	{domain.ErrAlreadyApproved, http.StatusConflict},
	{domain.ErrAlreadyExecuted, http.StatusConflict},
	{domain.ErrQuorumNotMet, http.StatusConflict},
	{domain.ErrTooManyActiveProposals, http.StatusConflict},
	{domain.ErrInvalidQuorum, http.StatusConflict},
	{domain.ErrNotRetired, http.StatusConflict},
	{domain.ErrAlreadyRetired, http.StatusConflict},
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		for _, o := range statusOverrides {
			if errors.Is(err, o.err) {
				status = o.status
				break
			}
		}
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
