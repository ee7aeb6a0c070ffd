package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type UserHandler struct {
	svcMgr *services.ServiceManager
}

func NewUserHandler(svcMgr *services.ServiceManager) *UserHandler {
	return &UserHandler{
		svcMgr: svcMgr,
	}
}

// Create handles POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "user", "User created", func() (interface{}, error) {
		return h.svcMgr.Users.Create(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "users", func() (interface{}, error) {
		return h.svcMgr.Users.List(c.Request.Context(), GetUserFromContext(c))
	})
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "user", func() (interface{}, error) {
		return h.svcMgr.Users.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req services.UpdateUserRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "user", "User updated", func() (interface{}, error) {
		return h.svcMgr.Users.Update(c.Request.Context(), c.Param("id"), req, GetUserFromContext(c))
	})
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "User deleted", func() error {
		return h.svcMgr.Users.Delete(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}
