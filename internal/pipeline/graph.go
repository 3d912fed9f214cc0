package pipeline

import "context"

// NodeID names a node of the stage graph.
type NodeID string

const (
	NodeGenerate NodeID = "generate"
	NodeValidate NodeID = "validate"
	NodePublish  NodeID = "publish"
	NodeTerminal NodeID = "terminal"
)

// Stage transforms the current state into a partial update. Stages catch
// their own failures and record them as state fields; they never return an
// error to the driver.
type Stage func(ctx context.Context, s State) Update

// Predicate gates an edge on the merged state after a stage ran.
type Predicate func(s State) bool

// Edge is one routing rule. Routing is data, not control flow: the edges of
// a node are evaluated in declaration order and the first match wins, so new
// stages and branches are additive.
type Edge struct {
	From NodeID
	To   NodeID
	When Predicate
}

func Always(State) bool { return true }

func HasError(s State) bool { return s.ErrMessage != "" }

func ValidationPassed(s State) bool {
	return s.Validation != nil && s.Validation.Passed
}

// Graph is the fixed stage graph for one generation:
// generate -> validate -> [publish | terminal].
type Graph struct {
	entry  NodeID
	stages map[NodeID]Stage
	edges  []Edge
}

// NewGraph assembles the generation graph from its three stages.
func NewGraph(generate, validate, publish Stage) *Graph {
	return &Graph{
		entry: NodeGenerate,
		stages: map[NodeID]Stage{
			NodeGenerate: generate,
			NodeValidate: validate,
			NodePublish:  publish,
		},
		edges: []Edge{
			// A generation failure short-circuits straight to terminal;
			// nothing downstream can act on an empty or partial file map.
			{From: NodeGenerate, To: NodeTerminal, When: HasError},
			{From: NodeGenerate, To: NodeValidate, When: Always},
			// Unpublishable code never reaches the repository-creation step.
			{From: NodeValidate, To: NodePublish, When: ValidationPassed},
			{From: NodeValidate, To: NodeTerminal, When: Always},
			{From: NodePublish, To: NodeTerminal, When: Always},
		},
	}
}

// Entry returns the graph's entry node.
func (g *Graph) Entry() NodeID { return g.entry }

// StageFor returns the stage bound to a node, or nil for terminal.
func (g *Graph) StageFor(node NodeID) Stage { return g.stages[node] }

// Route picks the next node after from, given the merged state. A node with
// no matching edge routes to terminal.
func (g *Graph) Route(from NodeID, s State) NodeID {
	for _, e := range g.edges {
		if e.From != from {
			continue
		}
		if e.When == nil || e.When(s) {
			return e.To
		}
	}
	return NodeTerminal
}
