// Package render formats workflow results, store entries and completions for
// the terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

const defaultWidth = 80

type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	link    lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(lg *lipgloss.Renderer) styles {
	return styles{
		heading: lg.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		label:   lg.NewStyle().Bold(true),
		link:    lg.NewStyle().Foreground(lipgloss.Color("39")).Underline(true),
		err:     lg.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		warn:    lg.NewStyle().Foreground(lipgloss.Color("214")),
		dim:     lg.NewStyle().Faint(true),
	}
}

// Renderer writes styled output to w.
type Renderer struct {
	w      io.Writer
	width  int
	tty    bool
	styles styles
}

// New returns a Renderer for w. Colors, markdown styling and live progress
// are only used when w is a terminal. The color profile belongs to the
// Renderer; the lipgloss default renderer is left alone.
func New(w io.Writer) *Renderer {
	r := &Renderer{w: w, width: defaultWidth}

	var lg *lipgloss.Renderer
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			r.width = width
		}
		lg = lipgloss.NewRenderer(w)
	} else {
		lg = lipgloss.NewRenderer(w, termenv.WithProfile(termenv.Ascii))
	}
	r.styles = newStyles(lg)

	return r
}

// Result writes the block for a single upload result.
func (r *Renderer) Result(res upload.Result) {
	io.WriteString(r.w, r.resultBlock(res))
}

func (r *Renderer) resultBlock(res upload.Result) string {
	var b strings.Builder
	s := r.styles

	fmt.Fprintln(&b, s.heading.Render(res.Name))

	if res.Err != nil {
		fmt.Fprintln(&b, s.err.Render("Error: "+res.Err.Error()))
		fmt.Fprintln(&b)
		return b.String()
	}

	rec := res.Record
	r.field(&b, "ID", rec.ID)
	r.field(&b, "Title", rec.Title)
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Public URL:"), s.link.Render(rec.Link))
	fmt.Fprintln(&b, s.dim.Render(fmt.Sprintf("%dx%d %s, %d bytes", rec.Width, rec.Height, rec.Type, rec.Size)))

	if res.StoreErr != nil {
		fmt.Fprintln(&b, s.warn.Render("Warning: metadata not recorded: "+res.StoreErr.Error()))
	}
	fmt.Fprintln(&b)
	return b.String()
}

// Summary writes the "Uploaded N of M images" line.
func (r *Renderer) Summary(ok, total int) {
	fmt.Fprintf(r.w, "Uploaded %d of %d images\n", ok, total)
}

// Entries writes one line per store entry.
func (r *Renderer) Entries(entries []*metadata.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.w, "No images recorded.")
		return
	}

	idWidth := 0
	for _, e := range entries {
		idWidth = max(idWidth, len(e.ID))
	}

	for _, e := range entries {
		id := r.styles.label.Render(e.ID) + strings.Repeat(" ", idWidth-len(e.ID))
		link := ansi.Truncate(e.Link, max(r.width-idWidth-2, 10), "…")
		fmt.Fprintf(r.w, "%s  %s\n", id, r.styles.link.Render(link))
	}
}

// Entry writes a single store entry.
func (r *Renderer) Entry(e *metadata.Entry) {
	r.field(r.w, "ID", e.ID)
	fmt.Fprintf(r.w, "%s %s\n", r.styles.label.Render("Public URL:"), r.styles.link.Render(e.Link))
}

// Markdown writes model output, rendered as markdown on a terminal and
// verbatim otherwise.
func (r *Renderer) Markdown(text string) error {
	if !r.tty {
		_, err := fmt.Fprintln(r.w, text)
		return err
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := md.Render(text)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(r.w, out)
	return err
}

func (r *Renderer) field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", r.styles.label.Render(label+":"), value)
}
