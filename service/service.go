package service

import (
	"context"

	"github.com/katadb/katadb/annotation"
	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/executor"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
	"github.com/katadb/katadb/schema"
	"github.com/katadb/katadb/storage"
)

// Execute runs req's block through the full core pipeline - annotate,
// compile, apply modifiers, execute - against snapshot, and shapes the
// resulting rows into a QueryResponse. Grounded on the teacher's
// Database.ExecuteQueryWithInputs: parse is skipped (out of scope,
// req.Block already is the parsed IR) but the bind-inputs -> execute ->
// shape-results structure is the same.
func Execute(ctx context.Context, snapshot storage.Snapshot, tm schema.TypeManager, req QueryRequest) (*QueryResponse, error) {
	seeds := annotation.Seeds(req.Seeds)

	var ann *ir.TypeAnnotations
	var err error
	if req.Functions != nil && len(req.Functions.Decls) > 0 {
		ann, err = annotation.AnnotateWithFunctions(req.Block, snapshot, tm, seeds, req.Functions.Decls)
	} else {
		ann, err = annotation.Annotate(req.Block, snapshot, tm, seeds)
	}
	if err != nil {
		return nil, err
	}

	plan, err := planner.Compile(req.Block, ann, tm)
	if err != nil {
		return nil, err
	}
	plan = planner.CompileModifiers(plan, toPlannerModifiers(req.Modifiers))

	params := concept.NewParameterRegistry(req.Parameters)
	things := concept.NewSnapshotThingManager(snapshot, tm)
	env := executor.NewEnvironment(tm, things, params, ann, req.Functions)

	rows, err := executor.Execute(ctx, plan, env, []*executor.Row{executor.NewRow()})
	if err != nil {
		return nil, err
	}

	return shapeResponse(tm, req.Block.Variables, rows), nil
}

func toPlannerModifiers(m Modifiers) planner.Modifiers {
	sort := make([]planner.OrderKey, len(m.Sort))
	for i, k := range m.Sort {
		sort[i] = planner.OrderKey{Variable: k.Variable, Descending: k.Descending}
	}
	var reduce *planner.ReduceSpec
	if m.Reduce != nil {
		reduce = &planner.ReduceSpec{
			GroupBy:   m.Reduce.GroupBy,
			Aggregate: m.Reduce.Aggregate,
			Input:     m.Reduce.Input,
			Output:    m.Reduce.Output,
		}
	}
	return planner.Modifiers{
		Select:   m.Select,
		Offset:   m.Offset,
		Limit:    m.Limit,
		Distinct: m.Distinct,
		First:    m.First,
		Last:     m.Last,
		Sort:     sort,
		Reduce:   reduce,
	}
}

func shapeResponse(tm schema.TypeManager, variables []ir.Variable, rows []*executor.Row) *QueryResponse {
	varIDs := make([]ir.VariableID, len(variables))
	for i, v := range variables {
		varIDs[i] = v.ID
	}

	resp := &QueryResponse{Variables: varIDs, Rows: make([]ConceptRow, 0, len(rows))}
	for _, row := range rows {
		doc := make(ConceptRow, len(varIDs))
		for _, v := range varIDs {
			b, ok := row.Get(v)
			if !ok {
				continue
			}
			doc[v] = shapeBinding(tm, b)
		}
		resp.Rows = append(resp.Rows, doc)
	}
	return resp
}

func shapeBinding(tm schema.TypeManager, b executor.Binding) ConceptDocument {
	if b.Empty {
		return ConceptDocument{Empty: true}
	}
	switch b.Category {
	case executor.CategoryType:
		return ConceptDocument{TypeLabel: tm.MustLabel(b.Type)}
	case executor.CategoryInstance:
		doc := ConceptDocument{TypeLabel: tm.MustLabel(b.Instance.TypeID), InstanceID: uint64(b.Instance.InstanceID)}
		if b.Value.Kind != schema.ValueTypeNone {
			doc.HasValue = true
			doc.Value = b.Value
		}
		return doc
	case executor.CategoryValue:
		return ConceptDocument{HasValue: true, Value: b.Value}
	default:
		return ConceptDocument{}
	}
}
