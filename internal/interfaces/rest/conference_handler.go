package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type ConferenceHandler struct {
	svcMgr *services.ServiceManager
}

func NewConferenceHandler(svcMgr *services.ServiceManager) *ConferenceHandler {
	return &ConferenceHandler{
		svcMgr: svcMgr,
	}
}

// Create handles POST /api/conferences
func (h *ConferenceHandler) Create(c *gin.Context) {
	var req services.CreateConferenceRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "conference", "Conference created", func() (interface{}, error) {
		return h.svcMgr.Conferences.Create(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/conferences
func (h *ConferenceHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "conferences", func() (interface{}, error) {
		return h.svcMgr.Conferences.List(c.Request.Context(), c.Query("status"), GetUserFromContext(c))
	})
}

// Get handles GET /api/conferences/:id
func (h *ConferenceHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "conference", func() (interface{}, error) {
		return h.svcMgr.Conferences.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Join handles POST /api/conferences/:id/join
func (h *ConferenceHandler) Join(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "conference", "Joined conference", func() (interface{}, error) {
		return h.svcMgr.Conferences.Join(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Leave handles POST /api/conferences/:id/leave
func (h *ConferenceHandler) Leave(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "conference", "Left conference", func() (interface{}, error) {
		return h.svcMgr.Conferences.Leave(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// End handles POST /api/conferences/:id/end
func (h *ConferenceHandler) End(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "conference", "Conference ended", func() (interface{}, error) {
		return h.svcMgr.Conferences.End(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}
