package lineage

// Aggregate folds per-statement operations into a script-level Result.
// Table lists deduplicate in first-seen order; relationship source lists do
// not deduplicate, so a table feeding a target from several statements shows
// up once per statement. Aggregation is pure: the same operations always
// produce the same result.
func Aggregate(ops []Operation, warnings []Warning) *Result {
	res := &Result{
		Operations:    ops,
		Relationships: make(map[string][]string),
		Warnings:      warnings,
	}

	seenSource := make(map[string]struct{})
	seenTarget := make(map[string]struct{})
	seenVolatile := make(map[string]struct{})

	for _, op := range ops {
		if op.Target != nil {
			name := op.Target.Qualified()
			if op.Kind == OpCreateVolatile {
				if _, ok := seenVolatile[name]; !ok {
					seenVolatile[name] = struct{}{}
					res.VolatileTables = append(res.VolatileTables, name)
				}
			}
			if _, ok := seenTarget[name]; !ok {
				seenTarget[name] = struct{}{}
				res.TargetTables = append(res.TargetTables, name)
			}
		}

		for _, src := range op.Sources {
			name := src.Qualified()
			if _, ok := seenSource[name]; !ok {
				seenSource[name] = struct{}{}
				res.SourceTables = append(res.SourceTables, name)
			}
		}

		if op.Target != nil && len(op.Sources) > 0 {
			key := op.Target.Qualified()
			for _, src := range op.Sources {
				res.Relationships[key] = append(res.Relationships[key], src.Qualified())
			}
		}
	}
	return res
}
