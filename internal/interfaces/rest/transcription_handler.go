package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type TranscriptionHandler struct {
	svcMgr *services.ServiceManager
}

func NewTranscriptionHandler(svcMgr *services.ServiceManager) *TranscriptionHandler {
	return &TranscriptionHandler{
		svcMgr: svcMgr,
	}
}

// Create handles POST /api/transcriptions
func (h *TranscriptionHandler) Create(c *gin.Context) {
	var req services.CreateTranscriptionRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "job", "Transcription queued", func() (interface{}, error) {
		return h.svcMgr.Transcription.Create(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/transcriptions
func (h *TranscriptionHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "jobs", func() (interface{}, error) {
		return h.svcMgr.Transcription.List(c.Request.Context(), c.Query("status"),
			queryInt(c, "limit", 0), GetUserFromContext(c))
	})
}

// Get handles GET /api/transcriptions/:id
func (h *TranscriptionHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "job", func() (interface{}, error) {
		return h.svcMgr.Transcription.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}
