package reporting

import (
	"errors"
	"net/http"

	httperr "github.com/adpulse-lab/adpulse/internal/core/errors"
	"github.com/adpulse-lab/adpulse/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the reporting API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/workspaces/:workspace_id/report", s.HandleQueryReport)
	r.GET("/v1/workspaces/:workspace_id/campaigns/:campaign_id/kpi", s.HandleQueryCampaignKPI)
}

// HandleQueryReport handles GET /v1/workspaces/:workspace_id/report
// Query parameters: from, to, period, granularity, dense
func (s *Service) HandleQueryReport(c *gin.Context) {
	var uri struct {
		WorkspaceID string `uri:"workspace_id" binding:"required"`
	}
	var query struct {
		From        string `form:"from"`
		To          string `form:"to"`
		Period      string `form:"period"`
		Granularity string `form:"granularity"`
		Dense       *bool  `form:"dense"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.QueryReport(c.Request.Context(), ReportRequest{
		WorkspaceID: uri.WorkspaceID,
		From:        query.From,
		To:          query.To,
		Period:      query.Period,
		Granularity: query.Granularity,
		Dense:       query.Dense,
	})
	if err != nil {
		writeError(c, err, "Failed to build workspace report")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleQueryCampaignKPI handles GET /v1/workspaces/:workspace_id/campaigns/:campaign_id/kpi
// Query parameters: from, to, period, granularity
func (s *Service) HandleQueryCampaignKPI(c *gin.Context) {
	var uri struct {
		WorkspaceID string `uri:"workspace_id" binding:"required"`
		CampaignID  string `uri:"campaign_id" binding:"required"`
	}
	var query struct {
		From        string `form:"from"`
		To          string `form:"to"`
		Period      string `form:"period"`
		Granularity string `form:"granularity"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.QueryCampaignKPI(c.Request.Context(), KPIRequest{
		WorkspaceID: uri.WorkspaceID,
		CampaignID:  uri.CampaignID,
		From:        query.From,
		To:          query.To,
		Period:      query.Period,
		Granularity: query.Granularity,
	})
	if err != nil {
		writeError(c, err, "Failed to compute campaign KPI")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid report query",
			Details:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Campaign not found",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   message,
			Details:   err.Error(),
		})
	}
}
