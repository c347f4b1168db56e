package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableLayout tweaks individual columns, indexed from zero.
type tableLayout struct {
	rightAligned []int
	// wrap limits a column to the given width; longer cells wrap.
	wrap map[int]int
}

func renderTable(headers []string, rows [][]string, layout tableLayout) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	for _, i := range layout.rightAligned {
		if i >= 0 && i < len(configs) {
			configs[i].Align = text.AlignRight
		}
	}
	for i, width := range layout.wrap {
		if i >= 0 && i < len(configs) && width > 0 {
			configs[i].WidthMax = width
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// toRow pads or truncates cells to exactly n columns.
func toRow(cells []string, n int) table.Row {
	row := make(table.Row, n)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
