package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
	"github.com/voxhub/backend/pkg/constants"
)

type IntentHandler struct {
	svcMgr *services.ServiceManager
}

func NewIntentHandler(svcMgr *services.ServiceManager) *IntentHandler {
	return &IntentHandler{
		svcMgr: svcMgr,
	}
}

// Score handles POST /api/intent/score
func (h *IntentHandler) Score(c *gin.Context) {
	var req services.ScoreRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "result", func() (interface{}, error) {
		return h.svcMgr.Intent.Score(c.Request.Context(), req)
	})
}

// OutcomeRequest reports whether a routed intent worked out for the caller
type OutcomeRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Intent  string `json:"intent" binding:"required"`
	Success bool   `json:"success"`
}

// RecordOutcome handles POST /api/intent/outcome
func (h *IntentHandler) RecordOutcome(c *gin.Context) {
	var req OutcomeRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.svcMgr.Intent.RecordOutcome(c.Request.Context(), req.UserID, req.Intent, req.Success); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Outcome recorded"})
}
