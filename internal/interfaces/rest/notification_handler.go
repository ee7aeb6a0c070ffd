package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
	"github.com/voxhub/backend/pkg/constants"
)

type NotificationHandler struct {
	svcMgr *services.ServiceManager
}

func NewNotificationHandler(svcMgr *services.ServiceManager) *NotificationHandler {
	return &NotificationHandler{
		svcMgr: svcMgr,
	}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user := GetUserFromContext(c)
	unreadOnly := c.Query("unread") == "true"

	HandleGetEnvelope(c, "notifications", func() (interface{}, error) {
		return h.svcMgr.Notifications.List(c.Request.Context(), user.ID, unreadOnly, queryInt(c, "limit", 0))
	})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "count", func() (interface{}, error) {
		return h.svcMgr.Notifications.UnreadCount(c.Request.Context(), user.ID)
	})
}

// MarkRead handles POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := GetUserFromContext(c)
	if err := h.svcMgr.Notifications.MarkRead(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Notification marked as read"})
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := GetUserFromContext(c)
	n, err := h.svcMgr.Notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "All notifications marked as read", "count": n})
}
