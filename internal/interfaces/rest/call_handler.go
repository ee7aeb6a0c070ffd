package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
	"github.com/voxhub/backend/pkg/errors"
)

type CallHandler struct {
	svcMgr *services.ServiceManager
}

func NewCallHandler(svcMgr *services.ServiceManager) *CallHandler {
	return &CallHandler{
		svcMgr: svcMgr,
	}
}

// Create handles POST /api/calls
func (h *CallHandler) Create(c *gin.Context) {
	var req services.CreateCallRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "call", "Call recorded", func() (interface{}, error) {
		return h.svcMgr.Calls.Create(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/calls
func (h *CallHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "calls", func() (interface{}, error) {
		return h.svcMgr.Calls.List(c.Request.Context(), c.Query("status"), c.Query("direction"),
			queryInt(c, "limit", 0), queryInt(c, "offset", 0), GetUserFromContext(c))
	})
}

// Get handles GET /api/calls/:id
func (h *CallHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "call", func() (interface{}, error) {
		return h.svcMgr.Calls.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Update handles PUT /api/calls/:id
func (h *CallHandler) Update(c *gin.Context) {
	var req services.UpdateCallRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "call", "Call updated", func() (interface{}, error) {
		return h.svcMgr.Calls.Update(c.Request.Context(), c.Param("id"), req, GetUserFromContext(c))
	})
}

// Delete handles DELETE /api/calls/:id
func (h *CallHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Call deleted", func() error {
		return h.svcMgr.Calls.Delete(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// AttachTranscriptRequest carries a raw transcript to store on a call
type AttachTranscriptRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// AttachTranscript handles POST /api/calls/:id/transcript. The transcript is
// redacted before storage.
func (h *CallHandler) AttachTranscript(c *gin.Context) {
	var req AttachTranscriptRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "call", "Transcript attached", func() (interface{}, error) {
		return h.svcMgr.Calls.AttachTranscript(c.Request.Context(), c.Param("id"), req.Transcript, GetUserFromContext(c))
	})
}

// parseTimeRange reads from/to query params (RFC3339), defaulting to the
// trailing 24 hours.
func parseTimeRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, errors.NewValidationError("from", "Invalid RFC3339 timestamp")
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, errors.NewValidationError("to", "Invalid RFC3339 timestamp")
		}
		to = t
	}
	return from, to, nil
}

// KPISummary handles GET /api/calls/kpi/summary
func (h *CallHandler) KPISummary(c *gin.Context) {
	from, to, err := parseTimeRange(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	HandleGetEnvelope(c, "summary", func() (interface{}, error) {
		return h.svcMgr.Calls.KPISummary(c.Request.Context(), from, to, GetUserFromContext(c))
	})
}
