package lineage

import (
	"reflect"
	"testing"
)

// Helper to build an operation from qualified name strings
func makeOp(kind OpKind, target string, sources ...string) Operation {
	op := Operation{Kind: kind}
	if target != "" {
		op.Target = refFromString(target)
	}
	for _, s := range sources {
		op.Sources = append(op.Sources, *refFromString(s))
	}
	return op
}

// =============================================================================
// Test: Aggregation
// =============================================================================

func TestAggregate_TableLists(t *testing.T) {
	ops := []Operation{
		makeOp(OpCreateVolatile, "vt_work", "edw.sales"),
		makeOp(OpInsert, "mart.daily", "vt_work", "edw.sales"),
	}

	res := Aggregate(ops, nil)

	wantSources := []string{"edw.sales", "vt_work"}
	if !reflect.DeepEqual(res.SourceTables, wantSources) {
		t.Errorf("Expected sources %v, got %v", wantSources, res.SourceTables)
	}
	wantTargets := []string{"vt_work", "mart.daily"}
	if !reflect.DeepEqual(res.TargetTables, wantTargets) {
		t.Errorf("Expected targets %v, got %v", wantTargets, res.TargetTables)
	}
	if !reflect.DeepEqual(res.VolatileTables, []string{"vt_work"}) {
		t.Errorf("Expected volatile [vt_work], got %v", res.VolatileTables)
	}
}

func TestAggregate_RelationshipsKeepOrderAndDupes(t *testing.T) {
	ops := []Operation{
		makeOp(OpInsert, "tgt_t", "aa", "bb", "aa"),
	}

	res := Aggregate(ops, nil)

	want := []string{"aa", "bb", "aa"}
	if !reflect.DeepEqual(res.Relationships["tgt_t"], want) {
		t.Errorf("Expected relationships %v, got %v", want, res.Relationships["tgt_t"])
	}
	// The table list still collapses.
	if !reflect.DeepEqual(res.SourceTables, []string{"aa", "bb"}) {
		t.Errorf("Expected sources [aa bb], got %v", res.SourceTables)
	}
}

func TestAggregate_RelationshipsAccumulateAcrossStatements(t *testing.T) {
	ops := []Operation{
		makeOp(OpInsert, "tgt_t", "aa"),
		makeOp(OpInsert, "tgt_t", "bb"),
		makeOp(OpInsert, "other_t", "aa"),
	}

	res := Aggregate(ops, nil)

	if !reflect.DeepEqual(res.Relationships["tgt_t"], []string{"aa", "bb"}) {
		t.Errorf("Expected [aa bb], got %v", res.Relationships["tgt_t"])
	}
	if !reflect.DeepEqual(res.Relationships["other_t"], []string{"aa"}) {
		t.Errorf("Expected [aa], got %v", res.Relationships["other_t"])
	}
	if !reflect.DeepEqual(res.TargetTables, []string{"tgt_t", "other_t"}) {
		t.Errorf("Expected targets [tgt_t other_t], got %v", res.TargetTables)
	}
}

func TestAggregate_SelfJoinCollapses(t *testing.T) {
	ops := []Operation{
		makeOp(OpSelect, "", "emp", "emp"),
	}

	res := Aggregate(ops, nil)

	if !reflect.DeepEqual(res.SourceTables, []string{"emp"}) {
		t.Errorf("Expected single source, got %v", res.SourceTables)
	}
}

func TestAggregate_NoTargetNoRelationship(t *testing.T) {
	ops := []Operation{
		makeOp(OpSelect, "", "src_t"),
		makeOp(OpDrop, "gone_t"),
	}

	res := Aggregate(ops, nil)

	if len(res.Relationships) != 0 {
		t.Errorf("Expected no relationships, got %v", res.Relationships)
	}
	if !reflect.DeepEqual(res.TargetTables, []string{"gone_t"}) {
		t.Errorf("Expected targets [gone_t], got %v", res.TargetTables)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	ops := []Operation{
		makeOp(OpCreateVolatile, "vt_a", "base_t"),
		makeOp(OpInsert, "tgt_t", "vt_a", "base_t", "vt_a"),
		makeOp(OpSelect, "", "tgt_t"),
	}

	first := Aggregate(ops, nil)
	second := Aggregate(ops, nil)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregation must be deterministic:\n first  %+v\n second %+v", first, second)
	}
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(nil, nil)

	if len(res.SourceTables) != 0 || len(res.TargetTables) != 0 || len(res.VolatileTables) != 0 {
		t.Errorf("Expected empty lists, got %+v", res)
	}
	if res.Relationships == nil {
		t.Error("Relationships map must be initialized")
	}
}

func TestAggregate_WarningsCarried(t *testing.T) {
	warns := []Warning{{Line: 3, Message: "statement skipped"}}

	res := Aggregate(nil, warns)

	if len(res.Warnings) != 1 || res.Warnings[0].Line != 3 {
		t.Errorf("Expected warnings carried through, got %v", res.Warnings)
	}
}
