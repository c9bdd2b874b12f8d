// Package report renders narration outcomes for the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/starford/narrate/internal/apperr"
	"github.com/starford/narrate/internal/models"
	"github.com/starford/narrate/internal/narrator"
)

// Printer writes styled reports to w. Colors are dropped automatically when w
// is not a terminal.
type Printer struct {
	w     io.Writer
	title lipgloss.Style
	label lipgloss.Style
	muted lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
	warn  lipgloss.Style
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		title: r.NewStyle().Bold(true),
		label: r.NewStyle().Foreground(lipgloss.Color("12")),
		muted: r.NewStyle().Foreground(lipgloss.Color("8")),
		good:  r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		bad:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Preview prints the narration text followed by its size.
func (p *Printer) Preview(pv *narrator.Preview) {
	fmt.Fprintln(p.w, pv.Text)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.muted.Render("---"))
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("%s chars, %s words",
		humanize.Comma(int64(pv.Chars)), humanize.Comma(int64(pv.Words)))))
}

// Result prints the outcome of a completed run.
func (p *Printer) Result(res *narrator.Result) {
	if res.DryRun {
		p.Preview(&res.Preview)
		return
	}
	if res.Skipped {
		fmt.Fprintln(p.w, p.warn.Render("Up to date")+" "+p.muted.Render(res.Path))
		p.field("File", res.MP3Path)
		if res.FrontmatterUpdated {
			p.field("Frontmatter", "audio field restored")
		}
		return
	}

	fmt.Fprintln(p.w, p.good.Render("Done!"))
	p.field("File", res.MP3Path)
	p.field("Duration", FormatDuration(res.Duration))
	p.field("Size", humanize.Bytes(uint64(res.SizeBytes)))
	p.field("Words", humanize.Comma(int64(res.Words)))
	if res.FrontmatterUpdated {
		p.field("Frontmatter", "audio: "+res.AudioURL)
	}
}

// Batch prints one line per post and a closing tally.
func (p *Printer) Batch(items []narrator.BatchItem) {
	var done, skipped, short, failed int
	for _, it := range items {
		switch {
		case it.Err == nil && it.Result.Skipped:
			skipped++
			fmt.Fprintln(p.w, p.warn.Render("skip ")+" "+it.Path)
		case it.Err == nil:
			done++
			fmt.Fprintf(p.w, "%s %s %s\n", p.good.Render("ok   "), it.Path,
				p.muted.Render(FormatDuration(it.Result.Duration)))
		case errors.Is(it.Err, apperr.ErrBelowLengthThreshold):
			short++
			fmt.Fprintln(p.w, p.muted.Render("short")+" "+it.Path)
		default:
			failed++
			fmt.Fprintln(p.w, p.bad.Render("fail ")+" "+it.Path)
			fmt.Fprintln(p.w, p.muted.Render("      "+it.Err.Error()))
		}
	}
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("%d narrated, %d up to date, %d too short, %d failed",
		done, skipped, short, failed)))
}

// Narrations prints one line per catalog entry, newest first.
func (p *Printer) Narrations(items []models.Narration, total int) {
	if len(items) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("no narrations yet"))
		return
	}
	for _, n := range items {
		fmt.Fprintf(p.w, "%s  %s  %s  %s\n",
			p.label.Render(fmt.Sprintf("%6s", FormatDuration(n.Duration))),
			n.Path,
			p.muted.Render(humanize.Bytes(uint64(n.SizeBytes))),
			p.muted.Render(humanize.Time(n.UpdatedAt)))
	}
	if total > len(items) {
		fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("%d of %d shown", len(items), total)))
	}
}

// Diff prints a unified diff, or a note when there is nothing to change.
func (p *Printer) Diff(diff string) {
	if diff == "" {
		fmt.Fprintln(p.w, p.muted.Render("no changes"))
		return
	}
	fmt.Fprint(p.w, diff)
}

func (p *Printer) field(name, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", p.label.Render(name+":"), value)
}

// FormatDuration renders d as m:ss, rounded down to the second.
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
