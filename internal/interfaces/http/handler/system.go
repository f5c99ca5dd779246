package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retaildesk/backend/internal/interfaces/http/dto"
)

// BreakerStater reports the data service circuit breaker state
type BreakerStater interface {
	BreakerState() string
}

// JobStatuser reports the state of a background job
type JobStatuser interface {
	GetStatus() map[string]any
}

// SystemHandler serves liveness information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	breaker   BreakerStater
	refresher JobStatuser
}

// NewSystemHandler creates a new SystemHandler. breaker and refresher may be nil.
func NewSystemHandler(name, version string, breaker BreakerStater, refresher JobStatuser) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		breaker:   breaker,
		refresher: refresher,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string         `json:"status" example:"ok"`
	Name             string         `json:"name" example:"retail-console"`
	Version          string         `json:"version" example:"1.0.0"`
	GoVersion        string         `json:"go_version" example:"go1.25.5"`
	Uptime           string         `json:"uptime" example:"1h30m45s"`
	DataService      string         `json:"data_service,omitempty" example:"closed"`
	DashboardRefresh map[string]any `json:"dashboard_refresh,omitempty"`
}

// Health godoc
// @ID           health
// @Summary      Liveness
// @Description  Always 200 while the process serves requests. status is "degraded" when the data service breaker is open.
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.breaker != nil {
		resp.DataService = h.breaker.BreakerState()
		if resp.DataService == "open" {
			resp.Status = "degraded"
		}
	}
	if h.refresher != nil {
		resp.DashboardRefresh = h.refresher.GetStatus()
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
