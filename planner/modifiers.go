package planner

// CompileModifiers appends the query-level stream modifier and
// collecting steps described by mods onto inner's step list, in the
// fixed order spec.md §4.4 describes: select, then distinct/first/last,
// then sort or reduce, then offset/limit. A query with no modifiers
// returns inner unchanged.
func CompileModifiers(inner *ExecutablePlan, mods Modifiers) *ExecutablePlan {
	plan := &ExecutablePlan{Steps: append([]Step(nil), inner.Steps...)}

	if len(mods.Select) > 0 {
		plan.Steps = append(plan.Steps, &StreamModifierStep{Modifier: ModifierSelect, Variables: mods.Select})
	}
	if mods.Distinct {
		plan.Steps = append(plan.Steps, &StreamModifierStep{Modifier: ModifierDistinct})
	}
	if mods.First {
		plan.Steps = append(plan.Steps, &StreamModifierStep{Modifier: ModifierFirst})
	}
	if mods.Last {
		plan.Steps = append(plan.Steps, &StreamModifierStep{Modifier: ModifierLast})
	}
	if len(mods.Sort) > 0 {
		plan.Steps = append(plan.Steps, &CollectingStep{Kind: CollectingSort, OrderKeys: mods.Sort})
	}
	if mods.Reduce != nil {
		plan.Steps = append(plan.Steps, &CollectingStep{Kind: CollectingReduce, Reduce: mods.Reduce})
	}
	if mods.Offset != nil {
		plan.Steps = append(plan.Steps, &StreamModifierStep{Modifier: ModifierOffset, N: *mods.Offset})
	}
	if mods.Limit != nil {
		plan.Steps = append(plan.Steps, &StreamModifierStep{Modifier: ModifierLimit, N: *mods.Limit})
	}

	return plan
}
