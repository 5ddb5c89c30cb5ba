package planner

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title, block, category, time, muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		block:    r.NewStyle().Bold(true),
		category: r.NewStyle().Foreground(lipgloss.Color("13")),
		time:     r.NewStyle().Foreground(lipgloss.Color("10")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Render writes a styled plan for terminal output. The color profile is
// detected on w, so colors are dropped when w is not a terminal.
func Render(w io.Writer, p *Plan) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var sb strings.Builder
	sb.WriteString(st.title.Render(fmt.Sprintf("=== Daily Plan (%s, x%.2f) ===", p.Mode, p.Mode.Multiplier())))
	sb.WriteString("\n")

	for _, b := range p.Blocks {
		sb.WriteString(st.block.Render(b.Range))
		sb.WriteString(" ")
		sb.WriteString(st.category.Render("(" + b.Category + ")"))
		if len(b.Slots) == 0 {
			sb.WriteString(" ")
			sb.WriteString(st.muted.Render("nothing scheduled"))
		}
		sb.WriteString("\n")
		for _, s := range b.Slots {
			sb.WriteString("  ")
			sb.WriteString(st.time.Render(s.Start + "-" + s.End))
			sb.WriteString(" ")
			sb.WriteString(s.Task.Title)
			sb.WriteString("\n")
		}
		if b.Remaining > 0 && len(b.Slots) > 0 {
			sb.WriteString("  ")
			sb.WriteString(st.muted.Render(fmt.Sprintf("%d min free", b.Remaining)))
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderPlain writes the plan in the plain "=== Daily Plan ===" text form.
func RenderPlain(w io.Writer, p *Plan) error {
	var sb strings.Builder
	sb.WriteString("=== Daily Plan ===\n")
	for _, b := range p.Blocks {
		sb.WriteString(b.String())
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
