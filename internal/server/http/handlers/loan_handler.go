package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/server/http/dto"
)

// LoanHandler manages loan lifecycle endpoints.
type LoanHandler struct {
	facade LoanFacade
}

// NewLoanHandler constructs LoanHandler.
func NewLoanHandler(facade LoanFacade) *LoanHandler {
	return &LoanHandler{facade: facade}
}

// Record handles POST /api/loans.
func (h *LoanHandler) Record(c *gin.Context) {
	var req dto.LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	id, err := h.facade.RecordLoan(c.Request.Context(), CurrentPrincipal(c), model.LoanRequest{
		Borrower:     model.ParsePrincipal(req.Borrower),
		Lender:       model.ParsePrincipal(req.Lender),
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		Duration:     req.Duration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.LoanCreatedResponse{ID: id})
}

// Repay handles POST /api/loans/:id/repayment.
func (h *LoanHandler) Repay(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}
	var req dto.RepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	if err := h.facade.RecordLoanRepayment(c.Request.Context(), CurrentPrincipal(c), id, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Default handles POST /api/loans/:id/default.
func (h *LoanHandler) Default(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}
	if err := h.facade.RecordLoanDefault(c.Request.Context(), CurrentPrincipal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Get handles GET /api/loans/:id.
func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}
	loan, err := h.facade.LoanRecord(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}

func toLoanResponse(loan *model.LoanRecord) dto.LoanResponse {
	return dto.LoanResponse{
		ID:           loan.ID,
		Borrower:     loan.Borrower.String(),
		Lender:       loan.Lender.String(),
		Amount:       loan.Amount,
		InterestRate: loan.InterestRate,
		DueDate:      loan.DueDate,
		Repaid:       loan.Repaid,
		RepaidAmount: loan.RepaidAmount,
		Defaulted:    loan.Defaulted,
		CreatedAt:    loan.CreatedAt,
	}
}
