package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/server/http/dto"
)

// ReporterHandler manages the authorized reporter registry.
type ReporterHandler struct {
	facade ReporterFacade
}

// NewReporterHandler constructs ReporterHandler.
func NewReporterHandler(facade ReporterFacade) *ReporterHandler {
	return &ReporterHandler{facade: facade}
}

// Add handles POST /api/reporters.
func (h *ReporterHandler) Add(c *gin.Context) {
	var req dto.ReporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	reporter := model.ParsePrincipal(req.Reporter)
	if err := h.facade.AddAuthorizedReporter(c.Request.Context(), CurrentPrincipal(c), reporter); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReporterResponse{Principal: reporter.String(), Authorized: true})
}

// Remove handles DELETE /api/reporters/:principal.
func (h *ReporterHandler) Remove(c *gin.Context) {
	reporter := principalParam(c)
	if err := h.facade.RemoveAuthorizedReporter(c.Request.Context(), CurrentPrincipal(c), reporter); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReporterResponse{Principal: reporter.String(), Authorized: false})
}

// Check handles GET /api/reporters/:principal.
func (h *ReporterHandler) Check(c *gin.Context) {
	reporter := principalParam(c)
	ok, err := h.facade.IsAuthorizedReporter(c.Request.Context(), reporter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReporterResponse{Principal: reporter.String(), Authorized: ok})
}
