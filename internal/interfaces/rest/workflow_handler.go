package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
)

type WorkflowHandler struct {
	svcMgr *services.ServiceManager
}

func NewWorkflowHandler(svcMgr *services.ServiceManager) *WorkflowHandler {
	return &WorkflowHandler{
		svcMgr: svcMgr,
	}
}

// Create handles POST /api/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req services.SaveWorkflowRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "workflow", "Workflow created", func() (interface{}, error) {
		return h.svcMgr.Workflows.Create(c.Request.Context(), req, GetUserFromContext(c))
	})
}

// List handles GET /api/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "workflows", func() (interface{}, error) {
		return h.svcMgr.Workflows.List(c.Request.Context(), c.Query("status"), GetUserFromContext(c))
	})
}

// Get handles GET /api/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "workflow", func() (interface{}, error) {
		return h.svcMgr.Workflows.Get(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Update handles PUT /api/workflows/:id
func (h *WorkflowHandler) Update(c *gin.Context) {
	var req services.SaveWorkflowRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "workflow", "Workflow updated", func() (interface{}, error) {
		return h.svcMgr.Workflows.Update(c.Request.Context(), c.Param("id"), req, GetUserFromContext(c))
	})
}

// Activate handles POST /api/workflows/:id/activate
func (h *WorkflowHandler) Activate(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "workflow", "Workflow activated", func() (interface{}, error) {
		return h.svcMgr.Workflows.Activate(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// Archive handles POST /api/workflows/:id/archive
func (h *WorkflowHandler) Archive(c *gin.Context) {
	HandleMutationEnvelope(c, http.StatusOK, "workflow", "Workflow archived", func() (interface{}, error) {
		return h.svcMgr.Workflows.Archive(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// ExecuteRequest carries initial variables for a run
type ExecuteRequest struct {
	Variables map[string]interface{} `json:"variables"`
}

// Execute handles POST /api/workflows/:id/execute
func (h *WorkflowHandler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if c.Request.ContentLength > 0 && !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusCreated, "run", "Run started", func() (interface{}, error) {
		return h.svcMgr.Workflows.Execute(c.Request.Context(), c.Param("id"), req.Variables, GetUserFromContext(c))
	})
}

// ListRuns handles GET /api/workflows/:id/runs
func (h *WorkflowHandler) ListRuns(c *gin.Context) {
	HandleGetEnvelope(c, "runs", func() (interface{}, error) {
		return h.svcMgr.Workflows.ListRuns(c.Request.Context(), c.Param("id"),
			queryInt(c, "limit", 0), GetUserFromContext(c))
	})
}

// GetRun handles GET /api/workflow-runs/:id
func (h *WorkflowHandler) GetRun(c *gin.Context) {
	HandleGetEnvelope(c, "run", func() (interface{}, error) {
		return h.svcMgr.Workflows.GetRun(c.Request.Context(), c.Param("id"), GetUserFromContext(c))
	})
}

// ResumeRequest carries the caller digit for a waiting run
type ResumeRequest struct {
	Digit string `json:"digit" binding:"required"`
}

// ResumeRun handles POST /api/workflow-runs/:id/resume
func (h *WorkflowHandler) ResumeRun(c *gin.Context) {
	var req ResumeRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, "run", "Run resumed", func() (interface{}, error) {
		return h.svcMgr.Workflows.ResumeRun(c.Request.Context(), c.Param("id"), req.Digit, GetUserFromContext(c))
	})
}
