package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// Node colors by role. Volatile wins over both, both over source.
const (
	colorSource   = "#2E86AB"
	colorTarget   = "#A23B72"
	colorVolatile = "#F18F01"
	colorBoth     = "#C73E1D"
	colorEdge     = "#666666"
)

// edgeColors highlights the operation kinds that move data; everything
// else renders in the default edge color.
var edgeColors = map[string]string{
	"create_volatile": "#FF6B6B",
	"insert":          "#4ECDC4",
	"update":          "#45B7D1",
}

// GraphNode is one table in the visualization graph.
type GraphNode struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Color string `json:"color" yaml:"color"`
}

// GraphEdge is one data movement. Source and Target are node IDs.
type GraphEdge struct {
	Source    int    `json:"source" yaml:"source"`
	Target    int    `json:"target" yaml:"target"`
	Operation string `json:"operation" yaml:"operation"`
	Color     string `json:"color" yaml:"color"`
	Line      int    `json:"line" yaml:"line"`
}

// Graph is the visualization projection of one or more results. Nodes are
// sorted by table name and edges follow operation order, so the same
// results always produce the same graph.
type Graph struct {
	Nodes []GraphNode `json:"nodes" yaml:"nodes"`
	Edges []GraphEdge `json:"edges" yaml:"edges"`
}

// BuildGraph merges one or more results into a visualization graph. A table
// seen by several scripts becomes a single node with its roles combined.
func BuildGraph(results ...*lineage.Result) *Graph {
	sources := make(map[string]bool)
	targets := make(map[string]bool)
	volatile := make(map[string]bool)
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, t := range res.SourceTables {
			sources[t] = true
		}
		for _, t := range res.TargetTables {
			targets[t] = true
		}
		for _, t := range res.VolatileTables {
			volatile[t] = true
		}
	}

	names := make([]string, 0, len(sources)+len(targets))
	seen := make(map[string]bool)
	for _, set := range []map[string]bool{sources, targets, volatile} {
		for t := range set {
			if !seen[t] {
				seen[t] = true
				names = append(names, t)
			}
		}
	}
	sort.Strings(names)

	g := &Graph{Nodes: make([]GraphNode, 0, len(names)), Edges: []GraphEdge{}}
	ids := make(map[string]int, len(names))
	for _, name := range names {
		var kind, color string
		switch {
		case volatile[name]:
			kind, color = "volatile", colorVolatile
		case sources[name] && targets[name]:
			kind, color = "both", colorBoth
		case sources[name]:
			kind, color = "source", colorSource
		default:
			kind, color = "target", colorTarget
		}
		ids[name] = len(g.Nodes)
		g.Nodes = append(g.Nodes, GraphNode{ID: len(g.Nodes), Name: name, Type: kind, Color: color})
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		for _, op := range res.Operations {
			if op.Target == nil {
				continue
			}
			to, ok := ids[op.Target.Qualified()]
			if !ok {
				continue
			}
			kind := op.Kind.String()
			color, ok := edgeColors[kind]
			if !ok {
				color = colorEdge
			}
			for _, src := range op.Sources {
				from, ok := ids[src.Qualified()]
				if !ok {
					continue
				}
				g.Edges = append(g.Edges, GraphEdge{
					Source:    from,
					Target:    to,
					Operation: kind,
					Color:     color,
					Line:      op.Line,
				})
			}
		}
	}
	return g
}

// ToDot renders the graph in Graphviz dot form.
func (g *Graph) ToDot() string {
	var sb strings.Builder
	sb.WriteString("digraph lineage {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	for _, n := range g.Nodes {
		sb.WriteString(fmt.Sprintf("  n%d [label=\"%s\", fillcolor=\"%s\"];\n",
			n.ID, escapeLabel(n.Name), n.Color))
	}
	for _, e := range g.Edges {
		sb.WriteString(fmt.Sprintf("  n%d -> n%d [label=\"%s\", color=\"%s\"];\n",
			e.Source, e.Target, e.Operation, e.Color))
	}
	sb.WriteString("}\n")
	return sb.String()
}

// escapeLabel escapes double quotes in DOT labels.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
