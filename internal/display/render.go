// ABOUTME: Terminal rendering of matches, plans, command output, and chat replies
// ABOUTME: lipgloss styles for structure, glamour for markdown; plain text when color is off

package display

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/plan"
	"github.com/mauromedda/nlsh/internal/shell"
)

// DefaultWidth is used when the terminal size is unknown.
const DefaultWidth = 80

type styles struct {
	command lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{command: plain, muted: plain, accent: plain, warn: plain, err: plain, box: plain}
	}
	return styles{
		command: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		err: lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("1")).
			PaddingLeft(1).
			Foreground(lipgloss.Color("1")),
		box: lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8")).
			PaddingLeft(1),
	}
}

// Renderer formats pipeline results for a terminal of a given width.
type Renderer struct {
	color bool
	width int
	s     styles
	md    *glamour.TermRenderer
}

// NewRenderer builds a renderer. With color off, output is plain text and
// markdown is passed through unchanged.
func NewRenderer(color bool, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	r := &Renderer{color: color, width: width, s: newStyles(color)}
	if color {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			r.md = md
		}
	}
	return r
}

// Plan shows the command to run and where it came from.
func (r *Renderer) Plan(p *plan.ExecutionPlan) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s",
		r.s.accent.Render("$"),
		r.s.command.Render(p.Command()),
		r.s.muted.Render(fmt.Sprintf("  %s via %s", p.Source(), p.Origin())))
}

// Matches renders a ranked table of intent matches.
func (r *Renderer) Matches(ms []intent.IntentMatch) string {
	if len(ms) == 0 {
		return r.s.muted.Render("no intent matched")
	}
	rows := [][]string{{"INTENT", "DOMAIN", "CONF", "KEYWORDS", "ENTITIES"}}
	for _, m := range ms {
		rows = append(rows, []string{
			m.Intent.Name,
			m.Intent.Domain,
			fmt.Sprintf("%.2f", m.Confidence),
			strings.Join(m.MatchedKeywords, ","),
			formatBindings(m.Bindings()),
		})
	}
	lines := Columns(rows, r.width/3)
	lines[0] = r.s.muted.Render(lines[0])
	return strings.Join(lines, "\n")
}

// Suggestions renders a "did you mean" line, or nothing.
func (r *Renderer) Suggestions(ss []intent.Suggestion) string {
	if len(ss) == 0 {
		return ""
	}
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = r.s.accent.Render(s.Name)
	}
	return r.s.muted.Render("did you mean: ") + strings.Join(names, ", ")
}

// Output renders captured command output with its exit status.
func (r *Renderer) Output(out shell.Output) string {
	var b strings.Builder
	if text := strings.TrimRight(out.Combined, "\n"); text != "" {
		b.WriteString(r.s.box.Render(text))
		b.WriteString("\n")
	}
	if out.Truncated {
		b.WriteString(r.s.warn.Render("(output truncated)"))
		b.WriteString("\n")
	}
	status := fmt.Sprintf("exit %d in %s", out.ExitCode, out.Duration.Round(time.Millisecond))
	if out.ExitCode != 0 {
		b.WriteString(r.s.warn.Render(status))
	} else {
		b.WriteString(r.s.muted.Render(status))
	}
	return b.String()
}

// Markdown renders an LLM reply. Rendering failures fall back to raw text.
func (r *Renderer) Markdown(text string) string {
	if text == "" || r.md == nil {
		return text
	}
	rendered, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n ")
}

// Error renders an error message.
func (r *Renderer) Error(err error) string {
	if err == nil {
		return ""
	}
	return r.s.err.Render("✗ " + err.Error())
}

// Warn renders a warning line.
func (r *Renderer) Warn(msg string) string {
	return r.s.warn.Render(msg)
}

// Muted renders secondary text.
func (r *Renderer) Muted(msg string) string {
	return r.s.muted.Render(msg)
}

func formatBindings(b map[string]string) string {
	if len(b) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(b))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + b[k]
	}
	return strings.Join(parts, " ")
}
