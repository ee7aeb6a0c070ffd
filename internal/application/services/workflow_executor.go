package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/voxhub/backend/internal/domain"
	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/expression"
	"github.com/voxhub/backend/pkg/utils"
)

// RunStore is the persistence surface the executor needs.
type RunStore interface {
	InsertRun(ctx context.Context, run *models.WorkflowRun) error
	UpdateRun(ctx context.Context, runID string, updates map[string]interface{}) error
}

// ProgressBroadcaster pushes run progress frames to connected clients.
type ProgressBroadcaster interface {
	BroadcastRunProgress(runID string, frame interface{})
}

// ProgressFrame is one WebSocket progress message.
type ProgressFrame struct {
	RunID    string `json:"run_id"`
	State    string `json:"state"`
	NodeID   string `json:"node_id,omitempty"`
	NodeType string `json:"node_type,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Step     int    `json:"step"`
}

// WorkflowExecutor walks an IVR graph node by node, evaluating edge
// conditions against the run context and driving the run state machine.
// Menu nodes park the run in Waiting until a digit arrives via Resume.
type WorkflowExecutor struct {
	store       RunStore
	engine      *expression.Engine
	sm          *domain.RunStateMachine
	outbox      *OutboxService
	broadcaster ProgressBroadcaster
	httpClient  *http.Client
}

func NewWorkflowExecutor(store RunStore, engine *expression.Engine, outbox *OutboxService) *WorkflowExecutor {
	return &WorkflowExecutor{
		store:      store,
		engine:     engine,
		sm:         domain.NewRunStateMachine(),
		outbox:     outbox,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBroadcaster wires the WebSocket hub. Optional.
func (e *WorkflowExecutor) SetBroadcaster(b ProgressBroadcaster) {
	e.broadcaster = b
}

// Start creates and executes a new run of the workflow.
func (e *WorkflowExecutor) Start(ctx context.Context, wf *models.Workflow, vars map[string]interface{}, startedBy string) (*models.WorkflowRun, error) {
	start := wf.Graph.StartNode()
	if start == nil {
		return nil, errors.NewValidationError("graph", "Workflow has no start node")
	}

	if vars == nil {
		vars = map[string]interface{}{}
	}
	contextJSON, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("marshal run context: %w", err)
	}

	run := &models.WorkflowRun{
		ID:          utils.GenerateID(),
		TenantID:    wf.TenantID,
		WorkflowID:  wf.ID,
		State:       string(domain.RunStatePending),
		CurrentNode: start.ID,
		Context:     string(contextJSON),
		StartedBy:   startedBy,
		StartedAt:   time.Now(),
	}

	if err := e.store.InsertRun(ctx, run); err != nil {
		return nil, err
	}

	state, err := e.sm.Transition(domain.RunState(run.State), domain.TransitionStart)
	if err != nil {
		return nil, err
	}
	run.State = string(state)

	log.Printf("🚀 Workflow run started: %s (workflow %s)", run.ID, wf.Name)
	return e.advance(ctx, wf, run, nil)
}

// Resume continues a Waiting run with the caller's digit input.
func (e *WorkflowExecutor) Resume(ctx context.Context, wf *models.Workflow, run *models.WorkflowRun, digit string) (*models.WorkflowRun, error) {
	state, err := e.sm.Transition(domain.RunState(run.State), domain.TransitionResume)
	if err != nil {
		return nil, errors.NewValidationError("state", err.Error())
	}
	run.State = string(state)

	vars, err := e.runVars(run)
	if err != nil {
		return nil, err
	}
	vars["digit"] = digit
	if err := e.setVars(run, vars); err != nil {
		return nil, err
	}

	steps, err := e.runSteps(run)
	if err != nil {
		return nil, err
	}
	return e.advance(ctx, wf, run, steps)
}

// advance executes nodes until the run parks, terminates, or spends its step
// budget.
func (e *WorkflowExecutor) advance(ctx context.Context, wf *models.Workflow, run *models.WorkflowRun, steps []models.RunStep) (*models.WorkflowRun, error) {
	for i := 0; i < constants.WorkflowStepBudget; i++ {
		node := wf.Graph.NodeByID(run.CurrentNode)
		if node == nil {
			return e.failRun(ctx, wf, run, steps, fmt.Sprintf("node %s not found in graph", run.CurrentNode))
		}

		next, detail, wait, terminal, err := e.executeNode(ctx, node, wf, run)
		if err != nil {
			return e.failRun(ctx, wf, run, steps, err.Error())
		}

		steps = append(steps, models.RunStep{
			NodeID:   node.ID,
			NodeType: node.Type,
			Detail:   detail,
			At:       time.Now(),
		})
		e.broadcast(run, node, detail, len(steps))

		if wait {
			state, err := e.sm.Transition(domain.RunState(run.State), domain.TransitionAwaitInput)
			if err != nil {
				return e.failRun(ctx, wf, run, steps, err.Error())
			}
			run.State = string(state)
			return run, e.persist(ctx, run, steps, nil)
		}

		if terminal {
			state, err := e.sm.Transition(domain.RunState(run.State), domain.TransitionComplete)
			if err != nil {
				return e.failRun(ctx, wf, run, steps, err.Error())
			}
			run.State = string(state)
			now := time.Now()
			run.EndedAt = &now

			if err := e.persist(ctx, run, steps, &now); err != nil {
				return nil, err
			}
			e.enqueueRunEvent(ctx, EventWorkflowRunCompleted, wf, run)
			log.Printf("✅ Workflow run completed: %s (%d steps)", run.ID, len(steps))
			return run, nil
		}

		run.CurrentNode = next
	}

	return e.failRun(ctx, wf, run, steps, fmt.Sprintf("step budget exceeded (%d)", constants.WorkflowStepBudget))
}

// executeNode handles one node. Returns the next node ID, a step detail,
// whether the run should wait for input, and whether the node is terminal.
func (e *WorkflowExecutor) executeNode(ctx context.Context, node *models.Node, wf *models.Workflow, run *models.WorkflowRun) (next, detail string, wait, terminal bool, err error) {
	switch node.Type {
	case constants.NodeTypeMessage:
		next, err = e.defaultNext(node, wf)
		return next, node.Config["text"], false, false, err

	case constants.NodeTypeMenu:
		vars, verr := e.runVars(run)
		if verr != nil {
			return "", "", false, false, verr
		}
		digit, ok := vars["digit"].(string)
		if !ok || digit == "" {
			return "", "awaiting caller input", true, false, nil
		}
		// Consume the digit so a later menu waits again.
		delete(vars, "digit")
		if err := e.setVars(run, vars); err != nil {
			return "", "", false, false, err
		}

		var fallback string
		for _, edge := range wf.Graph.EdgesFrom(node.ID) {
			if edge.Digit == digit {
				return edge.To, "selected digit " + digit, false, false, nil
			}
			if edge.Default {
				fallback = edge.To
			}
		}
		if fallback == "" {
			return "", "", false, false, fmt.Errorf("menu node %s has no branch for digit %s and no default", node.ID, digit)
		}
		return fallback, "unmatched digit " + digit + ", took default", false, false, nil

	case constants.NodeTypeCondition:
		vars, verr := e.runVars(run)
		if verr != nil {
			return "", "", false, false, verr
		}
		var fallback string
		for _, edge := range wf.Graph.EdgesFrom(node.ID) {
			if edge.Condition == "" {
				if edge.Default {
					fallback = edge.To
				}
				continue
			}
			match, cerr := e.engine.EvaluateCondition(edge.Condition, vars)
			if cerr != nil {
				return "", "", false, false, fmt.Errorf("condition on edge %s->%s: %w", edge.From, edge.To, cerr)
			}
			if match {
				return edge.To, "condition matched: " + edge.Condition, false, false, nil
			}
		}
		if fallback == "" {
			return "", "", false, false, fmt.Errorf("condition node %s matched no edge and has no default", node.ID)
		}
		return fallback, "no condition matched, took default", false, false, nil

	case constants.NodeTypeTransfer:
		return "", "transferred to queue " + node.Config["queue"], false, true, nil

	case constants.NodeTypeWebhook:
		detail, werr := e.callWebhook(ctx, node, run)
		if werr != nil {
			return "", "", false, false, werr
		}
		next, err = e.defaultNext(node, wf)
		return next, detail, false, false, err

	case constants.NodeTypeHangup:
		return "", "call ended", false, true, nil

	default:
		return "", "", false, false, fmt.Errorf("unknown node type %q", node.Type)
	}
}

// defaultNext picks the single outgoing edge (or the default one).
func (e *WorkflowExecutor) defaultNext(node *models.Node, wf *models.Workflow) (string, error) {
	edges := wf.Graph.EdgesFrom(node.ID)
	if len(edges) == 0 {
		return "", fmt.Errorf("node %s has no outgoing edge", node.ID)
	}
	if len(edges) == 1 {
		return edges[0].To, nil
	}
	for _, edge := range edges {
		if edge.Default {
			return edge.To, nil
		}
	}
	return edges[0].To, nil
}

func (e *WorkflowExecutor) callWebhook(ctx context.Context, node *models.Node, run *models.WorkflowRun) (string, error) {
	url := node.Config["url"]
	if url == "" {
		return "", fmt.Errorf("webhook node %s has no url", node.ID)
	}

	vars, err := e.runVars(run)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(map[string]interface{}{
		"run_id":      run.ID,
		"workflow_id": run.WorkflowID,
		"tenant_id":   run.TenantID,
		"context":     vars,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("webhook %s returned status %d", url, resp.StatusCode)
	}
	return fmt.Sprintf("webhook %s returned %d", url, resp.StatusCode), nil
}

func (e *WorkflowExecutor) failRun(ctx context.Context, wf *models.Workflow, run *models.WorkflowRun, steps []models.RunStep, reason string) (*models.WorkflowRun, error) {
	state, terr := e.sm.Transition(domain.RunState(run.State), domain.TransitionFail)
	if terr != nil {
		return nil, terr
	}
	run.State = string(state)
	run.Error = reason
	now := time.Now()
	run.EndedAt = &now

	if err := e.persist(ctx, run, steps, &now); err != nil {
		return nil, err
	}

	e.enqueueRunEvent(ctx, EventWorkflowRunFailed, wf, run)
	e.broadcast(run, nil, reason, len(steps))
	log.Printf("❌ Workflow run failed: %s (%s)", run.ID, reason)
	return run, nil
}

func (e *WorkflowExecutor) persist(ctx context.Context, run *models.WorkflowRun, steps []models.RunStep, endedAt *time.Time) error {
	stepLog, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	run.StepLog = string(stepLog)

	updates := map[string]interface{}{
		"state":        run.State,
		"current_node": run.CurrentNode,
		"context":      run.Context,
		"step_log":     run.StepLog,
		"error":        run.Error,
	}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}
	return e.store.UpdateRun(ctx, run.ID, updates)
}

func (e *WorkflowExecutor) enqueueRunEvent(ctx context.Context, eventType EventType, wf *models.Workflow, run *models.WorkflowRun) {
	if e.outbox == nil {
		return
	}
	if err := e.outbox.Enqueue(ctx, nil, eventType, map[string]interface{}{
		"run_id":        run.ID,
		"workflow_id":   run.WorkflowID,
		"workflow_name": wf.Name,
		"tenant_id":     run.TenantID,
		"started_by":    run.StartedBy,
		"state":         run.State,
		"error":         run.Error,
	}); err != nil {
		log.Printf("⚠️ Failed to enqueue run event for %s: %v", run.ID, err)
	}
}

func (e *WorkflowExecutor) broadcast(run *models.WorkflowRun, node *models.Node, detail string, step int) {
	if e.broadcaster == nil {
		return
	}
	frame := ProgressFrame{
		RunID:  run.ID,
		State:  run.State,
		Detail: detail,
		Step:   step,
	}
	if node != nil {
		frame.NodeID = node.ID
		frame.NodeType = node.Type
	}
	e.broadcaster.BroadcastRunProgress(run.ID, frame)
}

func (e *WorkflowExecutor) runVars(run *models.WorkflowRun) (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	if run.Context != "" {
		if err := json.Unmarshal([]byte(run.Context), &vars); err != nil {
			return nil, fmt.Errorf("unmarshal run context: %w", err)
		}
	}
	return vars, nil
}

func (e *WorkflowExecutor) setVars(run *models.WorkflowRun, vars map[string]interface{}) error {
	b, err := json.Marshal(vars)
	if err != nil {
		return err
	}
	run.Context = string(b)
	return nil
}

func (e *WorkflowExecutor) runSteps(run *models.WorkflowRun) ([]models.RunStep, error) {
	if run.StepLog == "" {
		return nil, nil
	}
	var steps []models.RunStep
	if err := json.Unmarshal([]byte(run.StepLog), &steps); err != nil {
		return nil, fmt.Errorf("unmarshal step log: %w", err)
	}
	return steps, nil
}
