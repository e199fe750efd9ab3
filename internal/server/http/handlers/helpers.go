package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/server/http/dto"
	"github.com/polkiloo/creditscore/internal/server/http/middleware"
)

const (
	codeBadRequest = "BAD_REQUEST"
	codeInternal   = "INTERNAL"
)

// CurrentPrincipal extracts the authenticated caller from context.
func CurrentPrincipal(c *gin.Context) model.Principal {
	val, ok := c.Get(middleware.PrincipalContextKey)
	if !ok {
		return ""
	}
	p, _ := val.(model.Principal)
	return p
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case "NOT_AUTHORIZED":
		return http.StatusForbidden
	case "USER_NOT_FOUND", "LOAN_NOT_FOUND":
		return http.StatusNotFound
	case "ALREADY_EXISTS", "LOAN_ALREADY_REPAID", "LOAN_DEFAULTED", "PAYMENT_OVERDUE":
		return http.StatusConflict
	case "INVALID_AMOUNT", "INVALID_PRINCIPAL", "INVALID_SCORE":
		return http.StatusUnprocessableEntity
	case "INSUFFICIENT_BALANCE":
		return http.StatusPaymentRequired
	case codeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := domainErrors.Code(err)
	if code == "" {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: codeInternal, Message: "internal error"})
		return
	}
	c.JSON(StatusFor(code), dto.ErrorResponse{Error: code, Message: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: codeBadRequest, Message: message})
}

func principalParam(c *gin.Context) model.Principal {
	return model.ParsePrincipal(c.Param("principal"))
}

func loanIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "loan id must be a positive integer")
		return 0, false
	}
	return id, true
}
