package executor

import (
	"context"
	"sort"
	"strings"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
	"github.com/katadb/katadb/schema"
)

// applyCollecting dispatches a CollectingStep, which (unlike a stream
// modifier) needs every upstream row before it can emit anything.
func applyCollecting(ctx context.Context, step *planner.CollectingStep, rows []*Row) ([]*Row, error) {
	if err := checkInterrupt(ctx); err != nil {
		return nil, err
	}
	switch step.Kind {
	case planner.CollectingSort:
		return sortRows(rows, step.OrderKeys), nil
	case planner.CollectingReduce:
		return applyReduce(rows, step.Reduce)
	default:
		return nil, errUnsupportedShape()
	}
}

func sortRows(rows []*Row, keys []planner.OrderKey) []*Row {
	out := append([]*Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return compareByOrderKeys(out[i], out[j], keys) < 0
	})
	return out
}

func compareByOrderKeys(a, b *Row, keys []planner.OrderKey) int {
	for _, k := range keys {
		ab, aok := a.Get(k.Variable)
		bb, bok := b.Get(k.Variable)
		if !aok {
			ab = EmptyBinding()
		}
		if !bok {
			bb = EmptyBinding()
		}
		c := CompareBindings(ab, bb)
		if k.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// applyReduce groups rows by spec.GroupBy, then emits one row per group
// binding the group-by variables from an arbitrary member row plus
// Output set to the aggregate of Input over the group (spec.md §4.5.5).
func applyReduce(rows []*Row, spec *planner.ReduceSpec) ([]*Row, error) {
	type group struct {
		sample *Row
		values []concept.Value
	}
	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, r := range rows {
		var sb strings.Builder
		for _, v := range spec.GroupBy {
			sb.WriteString(bindingKeyOf(r, v))
			sb.WriteString("|")
		}
		key := sb.String()
		g, ok := groups[key]
		if !ok {
			g = &group{sample: r}
			groups[key] = g
			order = append(order, key)
		}
		if b, ok := r.Get(spec.Input); ok && !b.Empty && b.Category == CategoryValue {
			g.values = append(g.values, b.Value)
		}
	}

	// One output row per group that exists in rows. With no input rows
	// there are no groups, so nothing is emitted - count included.
	var out []*Row
	for _, key := range order {
		g := groups[key]
		agg, err := aggregate(spec.Aggregate, g.values)
		if err != nil {
			return nil, err
		}
		joined := NewRow()
		for _, v := range spec.GroupBy {
			if b, ok := g.sample.Get(v); ok {
				joined.Set(v, b)
			}
		}
		joined.Set(spec.Output, ValueBinding(agg))
		out = append(out, joined)
	}
	return out, nil
}

func aggregate(name string, values []concept.Value) (concept.Value, error) {
	switch name {
	case "count":
		return concept.Integer(int64(len(values))), nil
	case "sum":
		return sumValues(values)
	case "mean":
		return meanValues(values)
	case "max":
		return extremeValue(values, 1)
	case "min":
		return extremeValue(values, -1)
	default:
		return concept.Value{}, errUnknownAggregate(name)
	}
}

func sumValues(values []concept.Value) (concept.Value, error) {
	if len(values) == 0 {
		return concept.Integer(0), nil
	}
	allInteger := true
	for _, v := range values {
		if v.Kind != schema.ValueTypeInteger {
			allInteger = false
			break
		}
	}
	if allInteger {
		var total int64
		for _, v := range values {
			sum, ok := checkedAdd(total, v.Integer)
			if !ok {
				return concept.Value{}, errArithmeticOverflow(ir.ArithAdd)
			}
			total = sum
		}
		return concept.Integer(total), nil
	}
	var total float64
	for _, v := range values {
		f, err := numericAsFloat(v)
		if err != nil {
			return concept.Value{}, err
		}
		total += f
	}
	return concept.Double(total), nil
}

func meanValues(values []concept.Value) (concept.Value, error) {
	if len(values) == 0 {
		return concept.Double(0), nil
	}
	var total float64
	for _, v := range values {
		f, err := numericAsFloat(v)
		if err != nil {
			return concept.Value{}, err
		}
		total += f
	}
	return concept.Double(total / float64(len(values))), nil
}

// extremeValue returns the maximum (sign == 1) or minimum (sign == -1)
// value using concept.Compare, so it works uniformly across every
// orderable value type, not just numerics.
func extremeValue(values []concept.Value, sign int) (concept.Value, error) {
	if len(values) == 0 {
		return concept.Value{}, errAggregateTypeMismatch("max/min", "empty group")
	}
	best := values[0]
	for _, v := range values[1:] {
		if concept.Compare(v, best)*sign > 0 {
			best = v
		}
	}
	return best, nil
}

func numericAsFloat(v concept.Value) (float64, error) {
	switch v.Kind {
	case schema.ValueTypeInteger:
		return float64(v.Integer), nil
	case schema.ValueTypeDouble:
		return v.Double, nil
	case schema.ValueTypeDecimal:
		return v.Decimal.Float64(), nil
	default:
		return 0, errAggregateTypeMismatch("sum/mean", v.Kind)
	}
}
