package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type VoiceHandler struct {
	svcMgr *services.ServiceManager
}

func NewVoiceHandler(svcMgr *services.ServiceManager) *VoiceHandler {
	return &VoiceHandler{
		svcMgr: svcMgr,
	}
}

// Enroll handles POST /api/voice-profiles
func (h *VoiceHandler) Enroll(c *gin.Context) {
	var req services.EnrollRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "profile", "Enrollment started", func() (interface{}, error) {
		return h.svcMgr.Voice.Enroll(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/voice-profiles
func (h *VoiceHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "profiles", func() (interface{}, error) {
		return h.svcMgr.Voice.List(c.Request.Context(), c.Query("status"), GetUserFromContext(c))
	})
}

// Get handles GET /api/voice-profiles/:id
func (h *VoiceHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "profile", func() (interface{}, error) {
		return h.svcMgr.Voice.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// AddSample handles POST /api/voice-profiles/:id/samples
func (h *VoiceHandler) AddSample(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "profile", "Sample accepted", func() (interface{}, error) {
		return h.svcMgr.Voice.AddSample(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// VerifyRequest carries the sample reference to verify against a profile
type VerifyRequest struct {
	SampleRef string `json:"sample_ref" binding:"required"`
}

// Verify handles POST /api/voice-profiles/:id/verify
func (h *VoiceHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "result", func() (interface{}, error) {
		return h.svcMgr.Voice.Verify(c.Request.Context(), c.Param("id"), req.SampleRef, GetUserFromContext(c))
	})
}

// Delete handles DELETE /api/voice-profiles/:id
func (h *VoiceHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Voice profile deleted", func() error {
		return h.svcMgr.Voice.Delete(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}
