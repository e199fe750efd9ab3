package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/server/http/dto"
)

// CreditHandler serves credit score endpoints.
type CreditHandler struct {
	facade ScoreFacade
}

// NewCreditHandler constructs CreditHandler.
func NewCreditHandler(facade ScoreFacade) *CreditHandler {
	return &CreditHandler{facade: facade}
}

// Initialize handles POST /api/credit/:principal/init.
func (h *CreditHandler) Initialize(c *gin.Context) {
	user := principalParam(c)
	if err := h.facade.InitializeUserScore(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ScoreResponse{Principal: user.String(), Score: model.DefaultScore})
}

// Refresh handles POST /api/credit/:principal/refresh.
func (h *CreditHandler) Refresh(c *gin.Context) {
	user := principalParam(c)
	score, err := h.facade.UpdateCreditScore(c.Request.Context(), CurrentPrincipal(c), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ScoreResponse{Principal: user.String(), Score: score})
}

// Get handles GET /api/credit/:principal.
func (h *CreditHandler) Get(c *gin.Context) {
	rec, err := h.facade.CreditScore(c.Request.Context(), principalParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCreditRecordResponse(rec))
}

// Preview handles GET /api/credit/:principal/preview.
func (h *CreditHandler) Preview(c *gin.Context) {
	preview, err := h.facade.CalculateCreditScore(c.Request.Context(), principalParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ScoreResponse{
		Principal: preview.Principal.String(),
		Score:     preview.Score,
		Source:    string(preview.Source),
	})
}

// Stats handles GET /api/stats.
func (h *CreditHandler) Stats(c *gin.Context) {
	stats, err := h.facade.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{TotalUsers: stats.TotalUsers, LoanCounter: stats.LoanCounter})
}

// Height handles GET /api/height.
func (h *CreditHandler) Height(c *gin.Context) {
	height, err := h.facade.Height(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HeightResponse{Height: height})
}

func toCreditRecordResponse(rec *model.CreditRecord) dto.CreditRecordResponse {
	return dto.CreditRecordResponse{
		Principal:      rec.Principal.String(),
		Score:          rec.Score,
		LastUpdated:    rec.LastUpdated,
		TotalLoans:     rec.TotalLoans,
		RepaidLoans:    rec.RepaidLoans,
		DefaultedLoans: rec.DefaultedLoans,
		TotalBorrowed:  rec.TotalBorrowed,
		TotalRepaid:    rec.TotalRepaid,
	}
}
