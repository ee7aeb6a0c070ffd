package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxhub/backend/internal/domain"
	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/expression"
)

// memoryRunStore keeps runs in a map so the executor can be tested without a
// database.
type memoryRunStore struct {
	runs    map[string]*models.WorkflowRun
	updates []map[string]interface{}
}

func newMemoryRunStore() *memoryRunStore {
	return &memoryRunStore{runs: map[string]*models.WorkflowRun{}}
}

func (m *memoryRunStore) InsertRun(_ context.Context, run *models.WorkflowRun) error {
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRunStore) UpdateRun(_ context.Context, runID string, updates map[string]interface{}) error {
	m.updates = append(m.updates, updates)
	return nil
}

func testWorkflow(graph models.Graph) *models.Workflow {
	return &models.Workflow{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "after hours routing",
		Status:   constants.WorkflowStatusActive,
		Graph:    graph,
	}
}

func newTestExecutor() (*WorkflowExecutor, *memoryRunStore) {
	store := newMemoryRunStore()
	return NewWorkflowExecutor(store, expression.NewEngine(), nil), store
}

func TestExecutorLinearFlowCompletes(t *testing.T) {
	exec, store := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "greet", Type: constants.NodeTypeMessage, IsStart: true, Config: map[string]string{"text": "welcome"}},
			{ID: "bye", Type: constants.NodeTypeHangup},
		},
		Edges: []models.Edge{{From: "greet", To: "bye"}},
	})

	run, err := exec.Start(context.Background(), wf, nil, "user-1")
	require.NoError(t, err)

	assert.Equal(t, string(domain.RunStateCompleted), run.State)
	assert.NotNil(t, run.EndedAt)
	assert.Len(t, store.runs, 1)

	var steps []models.RunStep
	require.NoError(t, json.Unmarshal([]byte(run.StepLog), &steps))
	require.Len(t, steps, 2)
	assert.Equal(t, "greet", steps[0].NodeID)
	assert.Equal(t, "welcome", steps[0].Detail)
	assert.Equal(t, "bye", steps[1].NodeID)
}

func TestExecutorConditionBranching(t *testing.T) {
	exec, _ := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "route", Type: constants.NodeTypeCondition, IsStart: true},
			{ID: "vip", Type: constants.NodeTypeTransfer, Config: map[string]string{"queue": "vip"}},
			{ID: "general", Type: constants.NodeTypeTransfer, Config: map[string]string{"queue": "general"}},
		},
		Edges: []models.Edge{
			{From: "route", To: "vip", Condition: `plan == "premium"`},
			{From: "route", To: "general", Default: true},
		},
	})

	run, err := exec.Start(context.Background(), wf, map[string]interface{}{"plan": "premium"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateCompleted), run.State)
	assert.Contains(t, run.StepLog, "transferred to queue vip")

	run, err = exec.Start(context.Background(), wf, map[string]interface{}{"plan": "basic"}, "user-1")
	require.NoError(t, err)
	assert.Contains(t, run.StepLog, "transferred to queue general")
}

func TestExecutorMenuWaitsAndResumes(t *testing.T) {
	exec, _ := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "menu", Type: constants.NodeTypeMenu, IsStart: true},
			{ID: "sales", Type: constants.NodeTypeTransfer, Config: map[string]string{"queue": "sales"}},
			{ID: "support", Type: constants.NodeTypeTransfer, Config: map[string]string{"queue": "support"}},
		},
		Edges: []models.Edge{
			{From: "menu", To: "sales", Digit: "1"},
			{From: "menu", To: "support", Default: true},
		},
	})

	run, err := exec.Start(context.Background(), wf, nil, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateWaiting), run.State)
	assert.Equal(t, "menu", run.CurrentNode)

	run, err = exec.Resume(context.Background(), wf, run, "1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateCompleted), run.State)
	assert.Contains(t, run.StepLog, "transferred to queue sales")
}

func TestExecutorMenuUnmatchedDigitTakesDefault(t *testing.T) {
	exec, _ := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "menu", Type: constants.NodeTypeMenu, IsStart: true},
			{ID: "sales", Type: constants.NodeTypeTransfer, Config: map[string]string{"queue": "sales"}},
			{ID: "support", Type: constants.NodeTypeTransfer, Config: map[string]string{"queue": "support"}},
		},
		Edges: []models.Edge{
			{From: "menu", To: "sales", Digit: "1"},
			{From: "menu", To: "support", Default: true},
		},
	})

	run, err := exec.Start(context.Background(), wf, nil, "user-1")
	require.NoError(t, err)

	run, err = exec.Resume(context.Background(), wf, run, "9")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateCompleted), run.State)
	assert.Contains(t, run.StepLog, "transferred to queue support")
}

func TestExecutorWebhookNode(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	exec, _ := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "notify", Type: constants.NodeTypeWebhook, IsStart: true, Config: map[string]string{"url": server.URL}},
			{ID: "bye", Type: constants.NodeTypeHangup},
		},
		Edges: []models.Edge{{From: "notify", To: "bye"}},
	})

	run, err := exec.Start(context.Background(), wf, map[string]interface{}{"caller": "+15550001111"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateCompleted), run.State)

	require.NotNil(t, received)
	assert.Equal(t, run.ID, received["run_id"])
	ctxVars, ok := received["context"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "+15550001111", ctxVars["caller"])
}

func TestExecutorWebhookFailureFailsRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	exec, _ := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "notify", Type: constants.NodeTypeWebhook, IsStart: true, Config: map[string]string{"url": server.URL}},
			{ID: "bye", Type: constants.NodeTypeHangup},
		},
		Edges: []models.Edge{{From: "notify", To: "bye"}},
	})

	run, err := exec.Start(context.Background(), wf, nil, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateFailed), run.State)
	assert.Contains(t, run.Error, "status 500")
}

func TestExecutorStepBudget(t *testing.T) {
	exec, _ := newTestExecutor()

	// Two message nodes looping forever.
	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{
			{ID: "a", Type: constants.NodeTypeMessage, IsStart: true},
			{ID: "b", Type: constants.NodeTypeMessage},
		},
		Edges: []models.Edge{
			{From: "a", To: "b"},
			{From: "b", To: "a"},
		},
	})

	run, err := exec.Start(context.Background(), wf, nil, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunStateFailed), run.State)
	assert.Contains(t, run.Error, "step budget exceeded")
}

func TestExecutorMissingStartNode(t *testing.T) {
	exec, _ := newTestExecutor()

	wf := testWorkflow(models.Graph{
		Nodes: []models.Node{{ID: "a", Type: constants.NodeTypeMessage}},
	})

	_, err := exec.Start(context.Background(), wf, nil, "user-1")
	assert.Error(t, err)
}
