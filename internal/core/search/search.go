// Package search previews resolver output and batch results as terminal tables.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// HandleResolve runs the resolver for query (and alt on a miss) and prints the ranked candidates
func HandleResolve(ctx context.Context, resolver interfaces.CandidateResolver, query, alt string, w io.Writer) (shared.RankedCandidateList, error) {
	shared.ColorInfo.Fprintf(w, "🔎 Resolving '%s'...\n", query)

	list, err := resolver.ResolveWithFallback(ctx, query, alt)
	if errors.Is(err, shared.ErrMetadataNotFound) {
		shared.ColorWarning.Fprintln(w, "No results found.")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	shared.ColorInfo.Fprintf(w, "Found %d candidates:\n", len(list))
	fmt.Fprintln(w, RenderCandidates(list))
	if best, ok := list.Best(); ok {
		shared.ColorSuccess.Fprintf(w, "✅ Chosen: %s - %s (%s)\n", best.Artist, best.Title, best.Provider)
	}
	return list, nil
}

// RenderCandidates renders a ranked list; row 1 is the chosen candidate
func RenderCandidates(list shared.RankedCandidateList) string {
	headers := []string{"#", "Provider", "Title", "Artist", "Album", "Year", "Genre"}
	rows := make([][]string, 0, len(list))
	for i, c := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Provider.String(),
			shared.TruncateString(c.Title, 40),
			shared.TruncateString(c.Artist, 30),
			shared.TruncateString(c.Album, 30),
			c.Year(),
			c.Genre,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

// RenderOutcomes renders one row per processed entry
func RenderOutcomes(stats shared.BatchStats) string {
	headers := []string{"#", "Entry", "Outcome", "Detail"}
	rows := make([][]string, 0, len(stats.Outcomes))
	for i, o := range stats.Outcomes {
		label := o.Title
		if label == "" {
			label = o.Entry.Label()
		}
		detail := o.Destination
		switch {
		case o.Err != nil:
			detail = o.Err.Error()
		case o.Kind == shared.OutcomeSucceeded && !o.Tagged:
			detail += " (untagged)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			shared.TruncateString(label, 40),
			o.Kind.String(),
			shared.TruncateString(detail, 80),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
