package handler

import (
	"errors"
	"log"
	"net/http"

	"garage/internal/middleware"
	"garage/internal/workflow"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type errorKind struct {
	err    error
	status int
	code   string
}

// errorKinds is checked in order; the first errors.Is match wins.
var errorKinds = []errorKind{
	{workflow.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{workflow.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{workflow.ErrConflict, http.StatusConflict, "CONFLICT"},

	{workflow.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{workflow.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{workflow.ErrJobCardClosed, http.StatusConflict, "JOB_CARD_CLOSED"},
	{workflow.ErrJobCardFrozen, http.StatusConflict, "JOB_CARD_FROZEN"},
	{workflow.ErrAlreadyClosed, http.StatusConflict, "ALREADY_CLOSED"},
	{workflow.ErrAlreadyFrozen, http.StatusConflict, "ALREADY_FROZEN"},
	{workflow.ErrNotFrozen, http.StatusConflict, "NOT_FROZEN"},
	{workflow.ErrJobCardNotFinalized, http.StatusConflict, "JOB_CARD_NOT_FINALIZED"},
	{workflow.ErrAlreadyAssigned, http.StatusConflict, "ALREADY_ASSIGNED"},
	{workflow.ErrNotAssigned, http.StatusConflict, "NOT_ASSIGNED"},
	{workflow.ErrAlreadyClockedIn, http.StatusConflict, "ALREADY_CLOCKED_IN"},
	{workflow.ErrNotClockedIn, http.StatusConflict, "NOT_CLOCKED_IN"},
	{workflow.ErrCannotCancelPaid, http.StatusConflict, "CANNOT_CANCEL_PAID"},
	{workflow.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},

	{workflow.ErrInvalidQuantity, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
	{workflow.ErrQuantityExceedsRequest, http.StatusUnprocessableEntity, "QUANTITY_EXCEEDS_REQUEST"},
	{workflow.ErrQuantityExceedsApproval, http.StatusUnprocessableEntity, "QUANTITY_EXCEEDS_APPROVAL"},
	{workflow.ErrQuantityExceedsDisbursed, http.StatusUnprocessableEntity, "QUANTITY_EXCEEDS_DISBURSED"},
	{workflow.ErrReasonRequired, http.StatusUnprocessableEntity, "REASON_REQUIRED"},
	{workflow.ErrInvalidRole, http.StatusUnprocessableEntity, "INVALID_ROLE"},
	{workflow.ErrInvalidInvoice, http.StatusUnprocessableEntity, "INVALID_INVOICE"},
	{workflow.ErrEmptyInvoice, http.StatusUnprocessableEntity, "EMPTY_INVOICE"},
	{workflow.ErrInvalidAmount, http.StatusUnprocessableEntity, "INVALID_AMOUNT"},
	{workflow.ErrAmountExceedsBalance, http.StatusUnprocessableEntity, "AMOUNT_EXCEEDS_BALANCE"},
}

// writeError maps a service error onto the response envelope. Anything
// outside the workflow taxonomy is logged and reported as a 500.
func writeError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			c.JSON(k.status, response.Coded(k.status, k.code, err.Error()))
			return
		}
	}
	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, response.Coded(http.StatusInternalServerError, "INTERNAL", "Internal server error"))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Coded(http.StatusBadRequest, "BAD_REQUEST", msg))
}

// bindJSON binds the body and answers 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

func actorOf(c *gin.Context) (workflow.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthenticated"))
	}
	return actor, ok
}
