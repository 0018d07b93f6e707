package dag

import (
	"reflect"
	"testing"

	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

func TestGraph_AddTableAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddTable("edw.stage")
	g.AddEdge("edw.stage", "mart.sales")

	if g.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", g.EdgeCount())
	}

	children := g.Children("edw.stage")
	if len(children) != 1 || children[0] != "mart.sales" {
		t.Errorf("expected edge to mart.sales, got %v", children)
	}
}

func TestGraph_AddEdge_CreatesMissingNodes(t *testing.T) {
	g := NewGraph()

	g.AddEdge("a_t", "b_t")

	if _, ok := g.GetTable("a_t"); !ok {
		t.Error("expected a_t node to be created")
	}
	if _, ok := g.GetTable("b_t"); !ok {
		t.Error("expected b_t node to be created")
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := NewGraph()

	g.AddEdge("a_t", "b_t")
	g.AddEdge("a_t", "b_t")

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge (no duplicates), got %d", g.EdgeCount())
	}
}

func TestGraph_AddResult(t *testing.T) {
	res := &lineage.Result{
		SourceTables:   []string{"edw.sales", "vt_work"},
		TargetTables:   []string{"vt_work", "mart.daily"},
		VolatileTables: []string{"vt_work"},
		Relationships: map[string][]string{
			"vt_work":    {"edw.sales"},
			"mart.daily": {"vt_work"},
		},
	}

	g := NewGraph()
	g.AddResult(res)

	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", g.EdgeCount())
	}

	node, ok := g.GetTable("vt_work")
	if !ok {
		t.Fatal("vt_work missing from graph")
	}
	for _, role := range []string{RoleSource, RoleTarget, RoleVolatile} {
		if !node.HasRole(role) {
			t.Errorf("vt_work should carry role %s, has %v", role, node.Roles)
		}
	}

	if node, _ := g.GetTable("edw.sales"); node.HasRole(RoleTarget) {
		t.Error("edw.sales should not be a target")
	}
}

func TestGraph_AddResult_Accumulates(t *testing.T) {
	g := NewGraph()
	g.AddResult(&lineage.Result{
		SourceTables:  []string{"raw_t"},
		TargetTables:  []string{"stg_t"},
		Relationships: map[string][]string{"stg_t": {"raw_t"}},
	})
	g.AddResult(&lineage.Result{
		SourceTables:  []string{"stg_t"},
		TargetTables:  []string{"mart_t"},
		Relationships: map[string][]string{"mart_t": {"stg_t"}},
	})

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes after merge, got %d", g.NodeCount())
	}

	node, _ := g.GetTable("stg_t")
	if !node.HasRole(RoleSource) || !node.HasRole(RoleTarget) {
		t.Errorf("stg_t should be both source and target, has %v", node.Roles)
	}
}

func TestGraph_Edges_Sorted(t *testing.T) {
	g := NewGraph()
	g.AddEdge("b_t", "c_t")
	g.AddEdge("a_t", "c_t")
	g.AddEdge("a_t", "b_t")

	want := []Edge{
		{From: "a_t", To: "b_t"},
		{From: "a_t", To: "c_t"},
		{From: "b_t", To: "c_t"},
	}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_HasCycle_NoCycle(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a_t", "b_t")
	g.AddEdge("b_t", "c_t")

	hasCycle, path := g.HasCycle()
	if hasCycle {
		t.Errorf("expected no cycle, but found: %v", path)
	}
}

func TestGraph_HasCycle_WithCycle(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a_t", "b_t")
	g.AddEdge("b_t", "c_t")
	g.AddEdge("c_t", "a_t")

	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Error("expected cycle to be detected")
	}
	if len(path) == 0 {
		t.Error("expected cycle path to be non-empty")
	}
}

func TestGraph_SelfEdge_NotACycle(t *testing.T) {
	// INSERT INTO t SELECT ... FROM t is a legitimate load pattern.
	g := NewGraph()
	g.AddEdge("hist_t", "hist_t")
	g.AddEdge("hist_t", "mart_t")

	if hasCycle, path := g.HasCycle(); hasCycle {
		t.Errorf("self-edge must not count as a cycle, found: %v", path)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("self-edge should still be recorded, got %d edges", g.EdgeCount())
	}

	if _, err := g.TopologicalSort(); err != nil {
		t.Errorf("self-edge should not break sorting: %v", err)
	}
	levels, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("self-edge should not break leveling: %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("expected 2 levels, got %v", levels)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := NewGraph()
	g.AddEdge("raw_t", "stg_t")
	g.AddEdge("stg_t", "mart_t")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	if len(sorted) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(sorted))
	}

	positions := make(map[string]int)
	for i, node := range sorted {
		positions[node.Name] = i
	}
	if positions["raw_t"] >= positions["stg_t"] {
		t.Error("raw_t should come before stg_t")
	}
	if positions["stg_t"] >= positions["mart_t"] {
		t.Error("stg_t should come before mart_t")
	}
}

func TestGraph_TopologicalSort_Diamond(t *testing.T) {
	g := NewGraph()
	g.AddEdge("raw_t", "stg_a")
	g.AddEdge("raw_t", "stg_b")
	g.AddEdge("stg_a", "mart_t")
	g.AddEdge("stg_b", "mart_t")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	positions := make(map[string]int)
	for i, node := range sorted {
		positions[node.Name] = i
	}

	if positions["raw_t"] != 0 {
		t.Error("raw_t should be first")
	}
	if positions["mart_t"] != 3 {
		t.Error("mart_t should be last")
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a_t", "b_t")
	g.AddEdge("b_t", "a_t")

	if _, err := g.TopologicalSort(); err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestGraph_ExecutionLevels(t *testing.T) {
	g := NewGraph()
	g.AddEdge("raw_sales", "stg_sales")
	g.AddEdge("raw_custs", "stg_custs")
	g.AddEdge("stg_sales", "mart_t")
	g.AddEdge("stg_custs", "mart_t")

	levels, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("failed to get levels: %v", err)
	}

	want := [][]string{
		{"raw_custs", "raw_sales"},
		{"stg_custs", "stg_sales"},
		{"mart_t"},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("expected %v, got %v", want, levels)
	}
}

func TestGraph_Downstream(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a_t", "b_t")
	g.AddEdge("b_t", "c_t")
	g.AddTable("d_t")

	got := g.Downstream("a_t")
	want := []string{"a_t", "b_t", "c_t"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := g.Downstream("missing_t"); len(got) != 0 {
		t.Errorf("unknown table should have no downstream, got %v", got)
	}
}

func TestGraph_Upstream(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a_t", "c_t")
	g.AddEdge("b_t", "c_t")
	g.AddEdge("c_t", "d_t")

	got := g.Upstream("d_t")
	want := []string{"a_t", "b_t", "c_t"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := NewGraph()
	g.AddEdge("raw_a", "stg_t")
	g.AddEdge("raw_b", "stg_t")
	g.AddEdge("stg_t", "mart_t")
	g.AddEdge("mart_t", "mart_t") // self-edge must not disqualify the leaf

	if got := g.Roots(); !reflect.DeepEqual(got, []string{"raw_a", "raw_b"}) {
		t.Errorf("unexpected roots %v", got)
	}
	if got := g.Leaves(); !reflect.DeepEqual(got, []string{"mart_t"}) {
		t.Errorf("unexpected leaves %v", got)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := NewGraph()
	g.AddTable("a_t").addRole(RoleSource)
	g.AddEdge("a_t", "b_t")
	g.AddEdge("b_t", "c_t")
	g.AddEdge("c_t", "d_t")

	sub := g.Subgraph([]string{"b_t", "c_t"})

	if sub.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", sub.NodeCount())
	}
	if sub.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", sub.EdgeCount())
	}
	children := sub.Children("b_t")
	if len(children) != 1 || children[0] != "c_t" {
		t.Error("expected edge from b_t to c_t")
	}
}

func TestGraph_Subgraph_CopiesRoles(t *testing.T) {
	g := NewGraph()
	g.AddTable("a_t").addRole(RoleVolatile)

	sub := g.Subgraph([]string{"a_t"})
	node, ok := sub.GetTable("a_t")
	if !ok {
		t.Fatal("a_t missing from subgraph")
	}
	if !node.HasRole(RoleVolatile) {
		t.Error("roles should carry into subgraphs")
	}
}

func TestGraph_DisconnectedComponents(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a_t", "b_t")
	g.AddEdge("c_t", "d_t")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	if len(sorted) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(sorted))
	}

	positions := make(map[string]int)
	for i, node := range sorted {
		positions[node.Name] = i
	}
	if positions["a_t"] >= positions["b_t"] {
		t.Error("a_t should come before b_t")
	}
	if positions["c_t"] >= positions["d_t"] {
		t.Error("c_t should come before d_t")
	}
}
