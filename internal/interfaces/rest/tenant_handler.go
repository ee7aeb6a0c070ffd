package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type TenantHandler struct {
	svcMgr *services.ServiceManager
}

func NewTenantHandler(svcMgr *services.ServiceManager) *TenantHandler {
	return &TenantHandler{
		svcMgr: svcMgr,
	}
}

// Create handles POST /api/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req services.CreateTenantRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "tenant", "Tenant created", func() (interface{}, error) {
		return h.svcMgr.Tenants.Create(c.Request.Context(), req)
	})
}

// List handles GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "tenants", func() (interface{}, error) {
		return h.svcMgr.Tenants.List(c.Request.Context())
	})
}

// Get handles GET /api/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "tenant", func() (interface{}, error) {
		return h.svcMgr.Tenants.Get(c.Request.Context(), c.Param("id"))
	})
}

// Update handles PUT /api/tenants/:id
func (h *TenantHandler) Update(c *gin.Context) {
	var req services.UpdateTenantRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "tenant", "Tenant updated", func() (interface{}, error) {
		return h.svcMgr.Tenants.Update(c.Request.Context(), c.Param("id"), req)
	})
}

// Delete handles DELETE /api/tenants/:id. Deactivation, not row removal.
func (h *TenantHandler) Delete(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "tenant", "Tenant deactivated", func() (interface{}, error) {
		return h.svcMgr.Tenants.Delete(c.Request.Context(), c.Param("id"))
	})
}
