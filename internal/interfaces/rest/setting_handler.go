package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type SettingHandler struct {
	svcMgr *services.ServiceManager
}

func NewSettingHandler(svcMgr *services.ServiceManager) *SettingHandler {
	return &SettingHandler{
		svcMgr: svcMgr,
	}
}

// List handles GET /api/settings
func (h *SettingHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "settings", func() (interface{}, error) {
		return h.svcMgr.Settings.List(c.Request.Context(), GetUserFromContext(c))
	})
}

// Get handles GET /api/settings/:key
func (h *SettingHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "setting", func() (interface{}, error) {
		return h.svcMgr.Settings.Get(c.Request.Context(), c.Param("key"), GetUserFromContext(c))
	})
}

// Save handles PUT /api/settings
func (h *SettingHandler) Save(c *gin.Context) {
	var req services.SaveSettingRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "setting", "Setting saved", func() (interface{}, error) {
		return h.svcMgr.Settings.Save(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// Delete handles DELETE /api/settings/:key
func (h *SettingHandler) Delete(c *gin.Context) {
	global := c.Query("global") == "true"
	HandleDeleteEnvelope(c, "Setting deleted", func() error {
		return h.svcMgr.Settings.Delete(c.Request.Context(), c.Param("key"), global, GetUserFromContext(c))
	})
}
