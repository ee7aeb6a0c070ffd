package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type ForecastHandler struct {
	svcMgr *services.ServiceManager
}

func NewForecastHandler(svcMgr *services.ServiceManager) *ForecastHandler {
	return &ForecastHandler{
		svcMgr: svcMgr,
	}
}

// List handles GET /api/forecasts. Defaults to the next 48 hours.
func (h *ForecastHandler) List(c *gin.Context) {
	now := time.Now().UTC()
	from := now
	to := now.Add(48 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			from = t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			to = t
		}
	}

	HandleGetEnvelope(c, "forecasts", func() (interface{}, error) {
		return h.svcMgr.Forecasts.List(c.Request.Context(), from, to, GetUserFromContext(c))
	})
}

// Refresh handles POST /api/forecasts/refresh
func (h *ForecastHandler) Refresh(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "forecasts", "Forecast regenerated", func() (interface{}, error) {
		return h.svcMgr.Forecasts.Refresh(c.Request.Context(), GetUserFromContext(c))
	})
}
