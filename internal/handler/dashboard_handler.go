package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/internal/service"
	"github.com/noah-isme/docflow-api/pkg/response"
)

// DashboardHandler exposes workload aggregation endpoints.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Personal dashboard
// @Description Actionable queue and status distribution for the caller
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	res, err := h.service.Summary(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Departments godoc
// @Summary Department workload monitor
// @Description Pending documents per department, optionally scoped to one status
// @Tags Dashboard
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /dashboard/departments [get]
func (h *DashboardHandler) Departments(c *gin.Context) {
	var statusFilter *models.DocStatus
	if raw := c.Query("status"); raw != "" {
		status := models.DocStatus(raw)
		statusFilter = &status
	}

	res, err := h.service.DepartmentMonitor(c.Request.Context(), statusFilter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
