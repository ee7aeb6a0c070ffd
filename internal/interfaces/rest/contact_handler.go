package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type ContactHandler struct {
	svcMgr *services.ServiceManager
}

func NewContactHandler(svcMgr *services.ServiceManager) *ContactHandler {
	return &ContactHandler{
		svcMgr: svcMgr,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// Create handles POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req services.CreateContactRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "contact", "Contact created", func() (interface{}, error) {
		return h.svcMgr.Contacts.Create(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/contacts
func (h *ContactHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "contacts", func() (interface{}, error) {
		return h.svcMgr.Contacts.List(c.Request.Context(), c.Query("search"),
			queryInt(c, "limit", 0), queryInt(c, "offset", 0), GetUserFromContext(c))
	})
}

// Get handles GET /api/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "contact", func() (interface{}, error) {
		return h.svcMgr.Contacts.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Update handles PUT /api/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	var req services.UpdateContactRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "contact", "Contact updated", func() (interface{}, error) {
		return h.svcMgr.Contacts.Update(c.Request.Context(), c.Param("id"), req, GetUserFromContext(c))
	})
}

// Delete handles DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Contact deleted", func() error {
		return h.svcMgr.Contacts.Delete(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// AddActivity handles POST /api/contacts/:id/activities
func (h *ContactHandler) AddActivity(c *gin.Context) {
	var req services.CreateActivityRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "activity", "Activity recorded", func() (interface{}, error) {
		return h.svcMgr.Contacts.AddActivity(c.Request.Context(), c.Param("id"), req, GetUserFromContext(c))
	})
}

// ListActivities handles GET /api/contacts/:id/activities
func (h *ContactHandler) ListActivities(c *gin.Context) {
	HandleGetEnvelope(c, "activities", func() (interface{}, error) {
		return h.svcMgr.Contacts.ListActivities(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}
