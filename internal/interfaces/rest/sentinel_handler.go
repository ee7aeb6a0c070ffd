package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

// SentinelHandler exposes the security audit trail and the admin analytics
// SQL endpoint.
type SentinelHandler struct {
	svcMgr *services.ServiceManager
}

func NewSentinelHandler(svcMgr *services.ServiceManager) *SentinelHandler {
	return &SentinelHandler{
		svcMgr: svcMgr,
	}
}

// Events handles GET /api/sentinel/events
func (h *SentinelHandler) Events(c *gin.Context) {
	user := GetUserFromContext(c)

	// Platform admins may inspect a specific tenant or the whole platform.
	tenantID := user.TenantID
	if user.IsPlatformAdmin() {
		if t := c.Query("tenant_id"); t != "" {
			tenantID = &t
		} else {
			tenantID = nil
		}
	}

	HandleGetEnvelope(c, "events", func() (interface{}, error) {
		return h.svcMgr.Audit.List(c.Request.Context(), tenantID, c.Query("severity"),
			queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	})
}

// QueryRequest carries the raw analytics SQL
type QueryRequest struct {
	SQL string `json:"sql" binding:"required"`
}

// Query handles POST /api/sentinel/query
func (h *SentinelHandler) Query(c *gin.Context) {
	var req QueryRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "result", func() (interface{}, error) {
		return h.svcMgr.Analytics.Query(c.Request.Context(), req.SQL, GetUserFromContext(c))
	})
}
