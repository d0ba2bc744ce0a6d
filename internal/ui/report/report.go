package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"importcycles/internal/data/history"
	"importcycles/internal/engine/graph"

	"github.com/charmbracelet/lipgloss"
)

// Reporter renders analysis results. Headings are styled only when the target
// writer is a color-capable terminal.
type Reporter struct {
	out io.Writer
	err io.Writer

	successStyle lipgloss.Style
	cycleStyle   lipgloss.Style
	errorStyle   lipgloss.Style
	statusStyle  lipgloss.Style
}

func New(out, errOut io.Writer) *Reporter {
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)
	return &Reporter{
		out: out,
		err: errOut,
		successStyle: outRenderer.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true),
		cycleStyle: errRenderer.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true),
		errorStyle: errRenderer.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true),
		statusStyle: outRenderer.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true),
	}
}

// NoCycles writes the success summary to the output stream.
func (r *Reporter) NoCycles(files int) error {
	_, err := fmt.Fprintln(r.out, r.successStyle.Render(fmt.Sprintf("No cycles found in %d files.", files)))
	return err
}

// Cycles writes the heading and the cycle list as a nested JSON array
// (4-space indent) to the error stream.
func (r *Reporter) Cycles(cycles []graph.Cycle) error {
	if _, err := fmt.Fprintln(r.err, r.cycleStyle.Render("Found cycles:")); err != nil {
		return err
	}
	enc := json.NewEncoder(r.err)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(cycles)
}

// Error reports a fatal analysis error.
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.err, "%s %v\n", r.errorStyle.Render("error:"), err)
}

// Chain prints an import chain one hop per line.
func (r *Reporter) Chain(chain []string) error {
	var b strings.Builder
	for i, path := range chain {
		if i == 0 {
			b.WriteString(path)
		} else {
			b.WriteString("\n  -> ")
			b.WriteString(path)
		}
	}
	_, err := fmt.Fprintln(r.out, b.String())
	return err
}

// NoChain reports that to is not reachable from from.
func (r *Reporter) NoChain(from, to string) error {
	_, err := fmt.Fprintln(r.out, r.statusStyle.Render(fmt.Sprintf("No import chain from %s to %s.", from, to)))
	return err
}

// Status prints an informational line, used between watch-mode runs.
func (r *Reporter) Status(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.statusStyle.Render(fmt.Sprintf(format, args...)))
}

// History writes recorded runs as TSV, newest first, followed by the files
// most often reported inside a cycle.
func (r *Reporter) History(runs []history.Run, recurring []history.Recurrence) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(r.out, r.statusStyle.Render("No recorded runs."))
		return err
	}

	var buf strings.Builder
	buf.WriteString("RunID\tTimestamp\tFiles\tEdges\tCycles\n")
	for _, run := range runs {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			run.FileCount,
			run.EdgeCount,
			run.CycleCount,
		))
	}
	if len(recurring) > 0 {
		buf.WriteString("\nRecurring cycle members:\n")
		for _, rec := range recurring {
			buf.WriteString(fmt.Sprintf("%d\t%s\n", rec.Runs, rec.Path))
		}
	}
	_, err := io.WriteString(r.out, buf.String())
	return err
}
