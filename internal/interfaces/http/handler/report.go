package handler

import (
	"github.com/gin-gonic/gin"
	reportapp "github.com/retaildesk/backend/internal/application/report"
)

// ReportHandler serves sales statistics
type ReportHandler struct {
	BaseHandler
	dashboardService *reportapp.DashboardService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(dashboardService *reportapp.DashboardService) *ReportHandler {
	return &ReportHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// @ID           getSalesStatistics
// @Summary      Sales dashboard
// @Description  Today's figures, record totals, low stock count, weekly/monthly/yearly series and top products.
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=reportapp.DashboardResponse}
// @Failure      503 {object} dto.Response
// @Router       /sales/statistics [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// GetChart godoc
// @ID           getSalesChart
// @Summary      Normalized sales chart
// @Tags         reports
// @Produce      json
// @Param        granularity query string false "Bucket size" Enums(day, week, month, year)
// @Param        metric      query string false "Series"      Enums(revenue, profit, count)
// @Param        buckets     query int    false "Number of buckets"
// @Param        lang        query string false "Display language (uz, ru, en)"
// @Success      200 {object} dto.Response{data=reportapp.ChartResponse}
// @Failure      400 {object} dto.Response
// @Router       /sales/statistics/chart [get]
func (h *ReportHandler) GetChart(c *gin.Context) {
	var req reportapp.ChartRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	chart, err := h.dashboardService.GetChart(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, chart)
}
