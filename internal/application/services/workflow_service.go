package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/voxhub/backend/internal/domain"
	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/expression"
	"github.com/voxhub/backend/pkg/utils"
)

// WorkflowService manages IVR workflow definitions and their runs. Graphs are
// validated on save so activation and execution never see a malformed one.
type WorkflowService struct {
	repo     *persistence.WorkflowRepository
	engine   *expression.Engine
	executor *WorkflowExecutor
	outbox   *OutboxService
	audit    *AuditService
}

func NewWorkflowService(repo *persistence.WorkflowRepository, engine *expression.Engine, executor *WorkflowExecutor, outbox *OutboxService, audit *AuditService) *WorkflowService {
	return &WorkflowService{
		repo:     repo,
		engine:   engine,
		executor: executor,
		outbox:   outbox,
		audit:    audit,
	}
}

type SaveWorkflowRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Graph       models.Graph `json:"graph" binding:"required"`
	Schedule    *string      `json:"schedule"`
}

func validNodeType(t string) bool {
	switch t {
	case constants.NodeTypeMessage, constants.NodeTypeMenu, constants.NodeTypeCondition,
		constants.NodeTypeTransfer, constants.NodeTypeWebhook, constants.NodeTypeHangup:
		return true
	}
	return false
}

// ValidateGraph enforces the structural rules of an IVR graph.
func (s *WorkflowService) ValidateGraph(g models.Graph) error {
	if len(g.Nodes) == 0 {
		return errors.NewValidationError("graph", "Graph has no nodes")
	}

	starts := 0
	ids := map[string]bool{}
	for _, node := range g.Nodes {
		if node.ID == "" {
			return errors.NewValidationError("graph", "Node with empty ID")
		}
		if ids[node.ID] {
			return errors.NewValidationError("graph", "Duplicate node ID: "+node.ID)
		}
		ids[node.ID] = true

		if !validNodeType(node.Type) {
			return errors.NewValidationError("graph", fmt.Sprintf("Node %s has unknown type %q", node.ID, node.Type))
		}
		if node.IsStart {
			starts++
		}
	}
	if starts != 1 {
		return errors.NewValidationError("graph", fmt.Sprintf("Graph must have exactly one start node, found %d", starts))
	}

	for _, edge := range g.Edges {
		if !ids[edge.From] {
			return errors.NewValidationError("graph", "Edge references unknown node: "+edge.From)
		}
		if !ids[edge.To] {
			return errors.NewValidationError("graph", "Edge references unknown node: "+edge.To)
		}
		if edge.Condition != "" {
			if err := s.engine.Validate(edge.Condition); err != nil {
				return errors.NewValidationError("graph",
					fmt.Sprintf("Condition on edge %s->%s does not compile: %v", edge.From, edge.To, err))
			}
		}
	}

	// Menu nodes need a default branch so unmatched digits have somewhere
	// to go.
	for _, node := range g.Nodes {
		if node.Type != constants.NodeTypeMenu {
			continue
		}
		hasDefault := false
		for _, edge := range g.Edges {
			if edge.From == node.ID && edge.Default {
				hasDefault = true
				break
			}
		}
		if !hasDefault {
			return errors.NewValidationError("graph", "Menu node "+node.ID+" has no default edge")
		}
	}

	return nil
}

func parseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

func (s *WorkflowService) Create(ctx context.Context, req SaveWorkflowRequest, actor *auth.UserSession) (*models.Workflow, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	if err := s.ValidateGraph(req.Graph); err != nil {
		return nil, err
	}
	if req.Schedule != nil && *req.Schedule != "" {
		if _, err := parseCron(*req.Schedule); err != nil {
			return nil, errors.NewValidationError("schedule", "Invalid cron expression: "+err.Error())
		}
	}

	now := time.Now()
	wf := &models.Workflow{
		ID:          utils.GenerateID(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      constants.WorkflowStatusDraft,
		Graph:       req.Graph,
		Schedule:    req.Schedule,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, wf); err != nil {
		return nil, err
	}

	log.Printf("✅ Workflow created: %s (%s)", wf.Name, wf.ID)
	return wf, nil
}

func (s *WorkflowService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.Workflow, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	wf, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, errors.NewNotFoundError("workflow", id)
	}
	return wf, nil
}

func (s *WorkflowService) List(ctx context.Context, status string, actor *auth.UserSession) ([]*models.Workflow, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, tenantID, status)
}

// Update replaces the editable fields. Archived workflows are immutable.
func (s *WorkflowService) Update(ctx context.Context, id string, req SaveWorkflowRequest, actor *auth.UserSession) (*models.Workflow, error) {
	wf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if wf.Status == constants.WorkflowStatusArchived {
		return nil, errors.NewValidationError("status", "Archived workflows cannot be edited")
	}

	if err := s.ValidateGraph(req.Graph); err != nil {
		return nil, err
	}
	if req.Schedule != nil && *req.Schedule != "" {
		if _, err := parseCron(*req.Schedule); err != nil {
			return nil, errors.NewValidationError("schedule", "Invalid cron expression: "+err.Error())
		}
	}

	graph, err := req.Graph.Marshal()
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		constants.FieldName: strings.TrimSpace(req.Name),
		"description":       req.Description,
		"graph":             graph,
		"schedule":          req.Schedule,
	}

	if err := s.repo.Update(ctx, wf.TenantID, wf.ID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, wf.TenantID, wf.ID)
}

// Activate validates and turns a workflow live. Scheduled workflows get their
// first next_run_at stamped here.
func (s *WorkflowService) Activate(ctx context.Context, id string, actor *auth.UserSession) (*models.Workflow, error) {
	wf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if wf.Status == constants.WorkflowStatusActive {
		return wf, nil
	}

	if err := s.ValidateGraph(wf.Graph); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		constants.FieldStatus: constants.WorkflowStatusActive,
	}
	if wf.Schedule != nil && *wf.Schedule != "" {
		schedule, err := parseCron(*wf.Schedule)
		if err != nil {
			return nil, errors.NewValidationError("schedule", "Invalid cron expression: "+err.Error())
		}
		updates["next_run_at"] = schedule.Next(time.Now().UTC())
	}

	if err := s.repo.Update(ctx, wf.TenantID, wf.ID, updates); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &wf.TenantID, actor.ID, "workflow.activated", "workflow:"+wf.ID,
		constants.AuditSeverityInfo, "", wf.Name)
	if err := s.outbox.Enqueue(ctx, nil, EventWorkflowActivated, map[string]interface{}{
		"workflow_id": wf.ID,
		"tenant_id":   wf.TenantID,
		"name":        wf.Name,
	}); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, wf.TenantID, wf.ID)
}

// Archive retires a workflow.
func (s *WorkflowService) Archive(ctx context.Context, id string, actor *auth.UserSession) (*models.Workflow, error) {
	wf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{constants.FieldStatus: constants.WorkflowStatusArchived}
	if err := s.repo.Update(ctx, wf.TenantID, wf.ID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, wf.TenantID, wf.ID)
}

// Execute starts a run of an active workflow.
func (s *WorkflowService) Execute(ctx context.Context, id string, vars map[string]interface{}, actor *auth.UserSession) (*models.WorkflowRun, error) {
	wf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if wf.Status != constants.WorkflowStatusActive {
		return nil, errors.NewValidationError("status", "Only active workflows can be executed")
	}
	return s.executor.Start(ctx, wf, vars, actor.ID)
}

// GetRun fetches one run.
func (s *WorkflowService) GetRun(ctx context.Context, runID string, actor *auth.UserSession) (*models.WorkflowRun, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	run, err := s.repo.FindRunByID(ctx, tenantID, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, errors.NewNotFoundError("workflow_run", runID)
	}
	return run, nil
}

// ListRuns lists a workflow's recent runs.
func (s *WorkflowService) ListRuns(ctx context.Context, workflowID string, limit int, actor *auth.UserSession) ([]*models.WorkflowRun, error) {
	wf, err := s.Get(ctx, workflowID, actor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.FindRuns(ctx, wf.TenantID, wf.ID, limit)
}

// ResumeRun feeds a caller digit into a Waiting run.
func (s *WorkflowService) ResumeRun(ctx context.Context, runID, digit string, actor *auth.UserSession) (*models.WorkflowRun, error) {
	run, err := s.GetRun(ctx, runID, actor)
	if err != nil {
		return nil, err
	}
	if domain.RunState(run.State) != domain.RunStateWaiting {
		return nil, errors.NewValidationError("state", "Run is not waiting for input")
	}

	wf, err := s.Get(ctx, run.WorkflowID, actor)
	if err != nil {
		return nil, err
	}
	return s.executor.Resume(ctx, wf, run, digit)
}
