package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"trinity/internal/pool"
)

// Table renders static tabular data with auto-sized columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// AddRow appends a row.
func (t *Table) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table using the provided styles.
func (t *Table) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	// Size each column to its widest cell. lipgloss.Width handles cells
	// that already carry ANSI styling.
	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Bold.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sepStyle := styles.Muted

	for i, h := range t.Headers {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(t.Headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				sb.WriteString(rowStyle.Width(colWidths[i]).Render(cell))
				if i < len(row)-1 {
					sb.WriteString(sepStyle.Render("|"))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WorkerTable builds the result table for a batch of workers.
func WorkerTable(styles Styles, workers []*pool.Worker) *Table {
	t := NewTable("", "Provider", "Status", "Duration", "Result")
	for _, w := range workers {
		status := styles.StatusStyle(w.Status).Render(StatusGlyph(w.Status) + " " + string(w.Status))
		t.AddRow(
			styles.ProviderBadge(w.Provider),
			status,
			workerDuration(w),
			resultPreview(w, 60),
		)
	}
	return t
}

// StatsLine formats pool stats as a one-line summary.
func StatsLine(styles Styles, stats pool.Stats) string {
	parts := []string{
		styles.Success.Render(fmt.Sprintf("%d completed", stats.Completed)),
		styles.Error.Render(fmt.Sprintf("%d failed", stats.Failed)),
	}
	if stats.Killed > 0 {
		parts = append(parts, styles.Warning.Render(fmt.Sprintf("%d killed", stats.Killed)))
	}
	if stats.Running > 0 || stats.Pending > 0 {
		parts = append(parts, styles.Info.Render(fmt.Sprintf("%d in flight", stats.Running+stats.Pending)))
	}
	return strings.Join(parts, styles.Muted.Render(" · ")) +
		styles.Muted.Render(fmt.Sprintf("  (%d total)", stats.Total))
}

// workerDuration formats the wall time of a worker, or "-" before it ran.
func workerDuration(w *pool.Worker) string {
	if w.StartedAt == nil {
		return "-"
	}
	end := time.Now()
	if w.FinishedAt != nil {
		end = *w.FinishedAt
	}
	return end.Sub(*w.StartedAt).Round(100 * time.Millisecond).String()
}

// resultPreview returns the first line of output or the error, trimmed.
func resultPreview(w *pool.Worker, max int) string {
	text := w.Output
	if w.Status == pool.StatusFailed || w.Status == pool.StatusKilled {
		text = w.Error
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if len(text) > max {
		text = text[:max-3] + "..."
	}
	return text
}
