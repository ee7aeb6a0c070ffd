package models

import (
	"encoding/json"
	"time"
)

// Workflow is an IVR call-flow definition. The node graph is stored as JSON
// in the graph column.
type Workflow struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Graph       Graph      `json:"graph"`
	Schedule    *string    `json:"schedule,omitempty"` // cron expression for scheduled runs
	IsRunning   bool       `json:"-"`                  // scheduler execution lock
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Graph is the node/edge structure of a workflow.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a single workflow step.
type Node struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Label   string            `json:"label,omitempty"`
	IsStart bool              `json:"is_start,omitempty"`
	Config  map[string]string `json:"config,omitempty"`
}

// Edge connects two nodes. Condition, when set, is an expression evaluated
// against the run context; Digit selects a menu branch; Default marks the
// branch taken when nothing else matches.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition,omitempty"`
	Digit     string `json:"digit,omitempty"`
	Default   bool   `json:"default,omitempty"`
}

// Marshal serializes the graph for storage.
func (g Graph) Marshal() (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalGraph parses a stored graph column.
func UnmarshalGraph(raw string) (Graph, error) {
	var g Graph
	if raw == "" {
		return g, nil
	}
	err := json.Unmarshal([]byte(raw), &g)
	return g, err
}

// StartNode returns the graph's start node, or nil if absent.
func (g Graph) StartNode() *Node {
	for i := range g.Nodes {
		if g.Nodes[i].IsStart {
			return &g.Nodes[i]
		}
	}
	return nil
}

// NodeByID returns the node with the given ID, or nil.
func (g Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EdgesFrom returns all edges leaving the given node.
func (g Graph) EdgesFrom(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// WorkflowRun is one execution of a workflow.
type WorkflowRun struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	WorkflowID  string     `json:"workflow_id"`
	State       string     `json:"state"`
	CurrentNode string     `json:"current_node,omitempty"`
	Context     string     `json:"context,omitempty"` // JSON run variables
	StepLog     string     `json:"step_log,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedBy   string     `json:"started_by"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

// RunStep is one entry in a run's step log.
type RunStep struct {
	NodeID   string    `json:"node_id"`
	NodeType string    `json:"node_type"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}
