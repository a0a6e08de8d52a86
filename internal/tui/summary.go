package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"imgopt/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows is the end-of-run table for stats.
func SummaryRows(stats processor.Stats) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Images optimized", Value: fmt.Sprintf("%d/%d", stats.OptimizedFiles, stats.Attempted())},
		{Label: "Original size", Value: formatMiB(stats.TotalOriginalBytes)},
		{Label: "Optimized size", Value: formatMiB(stats.TotalOptimizedBytes)},
		{Label: "Space saved", Value: fmt.Sprintf("%s (↓ %.1f%%)", formatMiB(stats.SpaceSaved()), stats.PercentSaved())},
	}
	if n := len(stats.Failures); n > 0 {
		rows = append(rows, SummaryRow{Label: "Not optimized", Value: fmt.Sprintf("%d", n)})
	}
	if stats.Cancelled {
		rows = append(rows, SummaryRow{Label: "Status", Value: "cancelled"})
	}
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("─", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s %s %s", labelStyle.Render(label), dimStyle.Render("│"), valueStyle.Render(value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderFailures lists every file that was not optimized, or "" when there
// are none.
func RenderFailures(failures []processor.Failure) string {
	if len(failures) == 0 {
		return ""
	}
	lines := []string{warnStyle.Render(fmt.Sprintf("%d file(s) not optimized:", len(failures)))}
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("  %s %s %s", dimStyle.Render("-"), labelStyle.Render(f.Path), dimStyle.Render("("+f.Reason+")")))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func formatMiB(n int64) string {
	return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
}
