package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/lookbook/pkg/upload"
)

// Tracker follows a batch of uploads as they run and reports the summary
// once the batch is done.
type Tracker interface {
	upload.Observer

	// Close stops any live display and writes the "Uploaded N of M images"
	// summary. With an open-ended total, M is the number of files finished.
	Close() error
}

// Track returns a Tracker for total files; a total of zero or less means the
// batch is open-ended, as with a watched directory. On a terminal it draws a
// spinner and progress bar and prints each result above them, and Ctrl-C calls
// cancel. Elsewhere each result is written as soon as it finishes.
func (r *Renderer) Track(total int, cancel context.CancelFunc) Tracker {
	if !r.tty {
		return &plainTracker{r: r, tally: tally{total: total}}
	}
	return newTeaTracker(r, total, cancel)
}

type tally struct {
	total    int
	finished int
	ok       int
}

func (t *tally) add(res upload.Result) {
	t.finished++
	if res.OK() {
		t.ok++
	}
}

func (t *tally) summary(r *Renderer) {
	r.Summary(t.ok, max(t.total, t.finished))
}

type plainTracker struct {
	r *Renderer
	tally
}

func (t *plainTracker) Started(upload.File) {}

func (t *plainTracker) Finished(res upload.Result) {
	t.add(res)
	t.r.Result(res)
}

func (t *plainTracker) Close() error {
	t.summary(t.r)
	return nil
}

type teaTracker struct {
	r       *Renderer
	program *tea.Program
	done    chan struct{}
	err     error
	tally
}

func newTeaTracker(r *Renderer, total int, cancel context.CancelFunc) *teaTracker {
	t := &teaTracker{
		r:     r,
		done:  make(chan struct{}),
		tally: tally{total: total},
	}
	t.program = tea.NewProgram(newProgressModel(total, r.width, cancel), tea.WithOutput(r.w))

	go func() {
		defer close(t.done)
		if _, err := t.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			t.err = fmt.Errorf("progress display: %w", err)
		}
	}()

	return t
}

func (t *teaTracker) Started(f upload.File) {
	t.program.Send(fileStartedMsg{name: f.Name})
}

func (t *teaTracker) Finished(res upload.Result) {
	t.add(res)

	select {
	case <-t.done:
		// The display is gone after Ctrl-C; keep reporting results.
		t.r.Result(res)
	default:
		t.program.Send(fileFinishedMsg{block: strings.TrimSuffix(t.r.resultBlock(res), "\n")})
	}
}

func (t *teaTracker) Close() error {
	t.program.Send(trackerDoneMsg{})
	<-t.done
	t.summary(t.r)
	return t.err
}

type (
	fileStartedMsg  struct{ name string }
	fileFinishedMsg struct{ block string }
	trackerDoneMsg  struct{}
)

type progressModel struct {
	spinner  spinner.Model
	bar      progress.Model
	total    int
	finished int
	current  string
	cancel   context.CancelFunc
	quitting bool
}

func newProgressModel(total, width int, cancel context.CancelFunc) progressModel {
	return progressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("212"))),
		),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(min(40, max(width-12, 10)))),
		total:  total,
		cancel: cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
	case fileStartedMsg:
		m.current = msg.name
	case fileFinishedMsg:
		m.finished++
		m.current = ""
		return m, tea.Println(msg.block)
	case trackerDoneMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.quitting {
		return ""
	}

	status := "Waiting for images"
	if m.current != "" {
		status = "Uploading " + m.current
	}
	line := m.spinner.View() + " " + status + "\n"
	if m.total <= 0 {
		return line
	}

	pct := float64(m.finished) / float64(m.total)
	return line + m.bar.ViewAs(min(pct, 1)) + fmt.Sprintf(" %d/%d\n", m.finished, m.total)
}
