// Package dag builds a directed dependency graph over the tables that
// lineage analysis discovered. Edges run from source tables to the targets
// they feed. The graph drives impact analysis, load ordering and the graph
// report formats.
package dag

import (
	"fmt"
	"sort"

	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// Roles a table can carry within a run.
const (
	RoleSource   = "source"
	RoleTarget   = "target"
	RoleVolatile = "volatile"
)

// TableNode is one table in the dependency graph.
type TableNode struct {
	// Name is the table name as reported by analysis.
	Name string `json:"name"`

	// Roles records how the table participates: source, target, volatile.
	Roles []string `json:"roles,omitempty"`
}

func (n *TableNode) addRole(role string) {
	for _, r := range n.Roles {
		if r == role {
			return
		}
	}
	n.Roles = append(n.Roles, role)
	sort.Strings(n.Roles)
}

// HasRole reports whether the table carries the given role.
func (n *TableNode) HasRole(role string) bool {
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Edge is one source feeding one target.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a directed graph of table dependencies.
type Graph struct {
	nodes    map[string]*TableNode
	children map[string][]string // source -> targets it feeds
	parents  map[string][]string // target -> sources feeding it
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*TableNode),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddTable ensures a node for name exists and returns it.
func (g *Graph) AddTable(name string) *TableNode {
	if node, exists := g.nodes[name]; exists {
		return node
	}
	node := &TableNode{Name: name}
	g.nodes[name] = node
	g.children[name] = []string{}
	g.parents[name] = []string{}
	return node
}

// AddEdge records that from feeds to. Missing nodes are created and
// duplicate edges collapse. Self-edges are kept, a table can legitimately
// load from itself, but they never count as cycles.
func (g *Graph) AddEdge(from, to string) {
	g.AddTable(from)
	g.AddTable(to)

	if !contains(g.children[from], to) {
		g.children[from] = append(g.children[from], to)
	}
	if !contains(g.parents[to], from) {
		g.parents[to] = append(g.parents[to], from)
	}
}

// AddResult folds one analysis result into the graph. Calling it for each
// script of a batch accumulates the full dependency picture.
func (g *Graph) AddResult(res *lineage.Result) {
	if res == nil {
		return
	}

	for _, name := range res.SourceTables {
		g.AddTable(name).addRole(RoleSource)
	}
	for _, name := range res.TargetTables {
		g.AddTable(name).addRole(RoleTarget)
	}
	for _, name := range res.VolatileTables {
		g.AddTable(name).addRole(RoleVolatile)
	}

	// Insert relationship edges in sorted target order so graphs built
	// from the same results come out identical.
	targets := make([]string, 0, len(res.Relationships))
	for target := range res.Relationships {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		for _, source := range res.Relationships[target] {
			g.AddEdge(source, target)
		}
	}
}

// GetTable returns a node by name.
func (g *Graph) GetTable(name string) (*TableNode, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// Parents returns the sources feeding name, sorted.
func (g *Graph) Parents(name string) []string {
	return sortedCopy(g.parents[name])
}

// Children returns the targets fed by name, sorted.
func (g *Graph) Children(name string) []string {
	return sortedCopy(g.children[name])
}

// Nodes returns all tables sorted by name.
func (g *Graph) Nodes() []*TableNode {
	nodes := make([]*TableNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// Edges returns all edges sorted by source then target.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for from, tos := range g.children {
		for _, to := range tos {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// NodeCount returns the number of tables in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, self-edges included.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, tos := range g.children {
		count += len(tos)
	}
	return count
}

// HasCycle returns true if the graph contains a multi-table cycle, along
// with the cycle path. Self-edges are ignored.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		recStack[name] = true

		for _, child := range g.children[name] {
			if child == name {
				continue
			}
			if !visited[child] {
				path[child] = name
				if dfs(child) {
					return true
				}
			} else if recStack[child] {
				// Found a cycle, reconstruct its path.
				cyclePath = []string{child}
				for curr := name; curr != child; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{child}, cyclePath...)
				return true
			}
		}

		recStack[name] = false
		return false
	}

	for _, name := range g.sortedNames() {
		if !visited[name] {
			if dfs(name) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns tables ordered so every source precedes the
// targets it feeds. Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*TableNode, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*TableNode

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		for _, parent := range g.parents[name] {
			visit(parent)
		}

		result = append(result, g.nodes[name])
	}

	for _, name := range g.sortedNames() {
		visit(name)
	}

	return result, nil
}

// ExecutionLevels groups tables by load level. Tables at level N can be
// built in parallel once level N-1 is done; level 0 holds tables with no
// upstream dependencies.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var getLevel func(name string) int
	getLevel = func(name string) int {
		if level, ok := assigned[name]; ok {
			return level
		}

		maxParentLevel := -1
		for _, parent := range g.parents[name] {
			if parent == name {
				continue
			}
			if parentLevel := getLevel(parent); parentLevel > maxParentLevel {
				maxParentLevel = parentLevel
			}
		}

		level := maxParentLevel + 1
		assigned[name] = level
		return level
	}

	maxLevel := -1
	for name := range g.nodes {
		if level := getLevel(name); level > maxLevel {
			maxLevel = level
		}
	}

	levels := make([][]string, maxLevel+1)
	for name, level := range assigned {
		levels[level] = append(levels[level], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}

	return levels, nil
}

// Downstream returns the given tables plus every table they feed, directly
// or transitively, sorted. This is the blast radius of a change.
func (g *Graph) Downstream(names ...string) []string {
	affected := make(map[string]bool)

	var mark func(name string)
	mark = func(name string) {
		if affected[name] {
			return
		}
		affected[name] = true

		for _, child := range g.children[name] {
			mark(child)
		}
	}

	for _, name := range names {
		if _, exists := g.nodes[name]; exists {
			mark(name)
		}
	}

	return setToSorted(affected)
}

// Upstream returns every table feeding name, directly or transitively,
// excluding name itself.
func (g *Graph) Upstream(name string) []string {
	upstream := make(map[string]bool)

	var mark func(table string)
	mark = func(table string) {
		for _, parent := range g.parents[table] {
			if parent == table || upstream[parent] {
				continue
			}
			upstream[parent] = true
			mark(parent)
		}
	}

	mark(name)
	return setToSorted(upstream)
}

// Roots returns tables nothing else feeds. Self-edges do not disqualify.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.nodes {
		if !hasOtherThan(g.parents[name], name) {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns tables that feed nothing else. Self-edges do not
// disqualify.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.nodes {
		if !hasOtherThan(g.children[name], name) {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a new graph containing only the named tables and the
// edges between them.
func (g *Graph) Subgraph(names []string) *Graph {
	sub := NewGraph()
	keep := make(map[string]bool, len(names))

	for _, name := range names {
		if node, exists := g.nodes[name]; exists {
			keep[name] = true
			added := sub.AddTable(name)
			added.Roles = append([]string(nil), node.Roles...)
		}
	}

	for _, name := range names {
		for _, child := range g.children[name] {
			if keep[child] {
				sub.AddEdge(name, child)
			}
		}
	}

	return sub
}

func (g *Graph) sortedNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func setToSorted(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for name := range set {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// hasOtherThan reports whether slice holds any entry besides self.
func hasOtherThan(slice []string, self string) bool {
	for _, s := range slice {
		if s != self {
			return true
		}
	}
	return false
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
