package service

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/katadb/katadb/ir"
)

// FormatTable renders resp as a markdown table keyed by variable id,
// grounded on the teacher's TableFormatter.FormatRelation - same
// markdown-renderer, same "no rows" / row-count footer shape, adapted
// from Datalog's positional Tuple/Symbol columns to this core's
// ConceptRow/VariableID.
func FormatTable(resp *QueryResponse) string {
	if resp == nil || len(resp.Rows) == 0 {
		return "_No rows_"
	}

	var out strings.Builder
	alignment := make([]tw.Align, len(resp.Variables))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(&out,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	headers := make([]string, len(resp.Variables))
	for i, v := range resp.Variables {
		headers[i] = fmt.Sprintf("$%d", v)
	}
	table.Header(headers)

	for _, row := range resp.Rows {
		cells := make([]string, len(resp.Variables))
		for i, v := range resp.Variables {
			cells[i] = formatDocument(v, row)
		}
		table.Append(cells)
	}
	table.Render()

	out.WriteString(fmt.Sprintf("\n_%d rows_\n", len(resp.Rows)))
	return out.String()
}

func formatDocument(v ir.VariableID, row ConceptRow) string {
	doc, ok := row[v]
	if !ok || doc.Empty {
		return "-"
	}
	if doc.HasValue {
		return doc.Value.String()
	}
	if doc.InstanceID != 0 {
		return fmt.Sprintf("%s#%d", doc.TypeLabel, doc.InstanceID)
	}
	return doc.TypeLabel
}
