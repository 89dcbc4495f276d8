package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vsinha/bomalloc/pkg/application/dto"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"})
)

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.RunResult, config Config) error {
	var buf bytes.Buffer
	renderText(&buf, result)

	if _, err := config.Out.Write(buf.Bytes()); err != nil {
		return err
	}
	if config.OutputDir != "" {
		if _, err := saveFile(config, BaseName(result.Params)+".txt", buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func renderText(buf *bytes.Buffer, result *dto.RunResult) {
	p := result.Params
	fmt.Fprintf(buf, "%s\n", titleStyle.Render(fmt.Sprintf("Project %s  panel %s  %s", p.ProjectID, p.PanelType, p.Grounding)))
	fmt.Fprintf(buf, "%s\n\n", dimStyle.Render("run "+result.RunID))

	s := result.Summary
	fmt.Fprintf(buf, "Input lines: %d  excluded: %d  accessories: %d\n", s.InputLines, s.ExcludedLines, s.AccessoryLines)
	fmt.Fprintf(buf, "Resolved: %d  unresolved: %d  bin picks: %d  backorders: %d\n\n",
		s.ResolvedLines, s.UnresolvedLines, s.BinAllocations, s.Backorders)
	if s.DuplicateParts > 0 {
		fmt.Fprintf(buf, "%s %d duplicate catalog entries ignored\n\n", warningStyle.Render("Warning:"), s.DuplicateParts)
	}

	for _, t := range documentTables(result) {
		fmt.Fprintf(buf, "%s\n", titleStyle.Render(t.name))
		if len(t.rows) == 0 {
			fmt.Fprintf(buf, "%s\n\n", dimStyle.Render("  (none)"))
			continue
		}
		buf.WriteString(renderTable(t))
		buf.WriteString("\n")
	}
}

// renderTable pads every column to its widest cell
func renderTable(t table) string {
	widths := make([]int, len(t.headers))
	cells := make([][]string, len(t.rows))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for r, row := range t.rows {
		cells[r] = make([]string, len(row))
		for c, v := range row {
			cells[r][c] = cellText(v)
			if w := lipgloss.Width(cells[r][c]); w > widths[c] {
				widths[c] = w
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  ")
	for i, h := range t.headers {
		sb.WriteString(headerStyle.Render(pad(h, widths[i])))
		if i < len(t.headers)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("\n  ")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(dimStyle.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")

	for _, row := range cells {
		sb.WriteString("  ")
		for i, cell := range row {
			sb.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
