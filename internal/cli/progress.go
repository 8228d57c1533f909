package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/quellt/boxwood/pkg/assets"
)

// progressBarWidth is the character width of the resolution progress bar.
const progressBarWidth = 24

// resolveTickMsg advances the spinner frame between progress updates.
type resolveTickMsg struct{}

// resolveProgressMsg carries a chunk-progress update into the model.
type resolveProgressMsg struct{ loaded, total int }

// resolveDoneMsg stops the progress display.
type resolveDoneMsg struct{}

// resolveModel is the bubbletea model shown during chunked asset
// resolution. It renders a spinner, a bar, and the chunk counter.
type resolveModel struct {
	loaded int
	total  int
	frame  int
}

func (m resolveModel) Init() tea.Cmd {
	return resolveTick()
}

func resolveTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return resolveTickMsg{} })
}

func (m resolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resolveProgressMsg:
		m.loaded = msg.loaded
		m.total = msg.total
		return m, nil
	case resolveDoneMsg:
		return m, tea.Quit
	case resolveTickMsg:
		m.frame++
		return m, resolveTick()
	}
	return m, nil
}

func (m resolveModel) View() string {
	frame := styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	if m.total == 0 {
		return fmt.Sprintf("%s %s", frame, StyleDim.Render("Resolving assets..."))
	}
	return fmt.Sprintf("%s %s %s %s",
		frame,
		StyleDim.Render("Resolving assets"),
		renderBar(m.loaded, m.total, progressBarWidth),
		StyleDim.Render(fmt.Sprintf("%d/%d", m.loaded, m.total)))
}

// renderBar draws a fixed-width progress bar.
func renderBar(loaded, total, width int) string {
	if total <= 0 {
		total = 1
	}
	filled := loaded * width / total
	if filled > width {
		filled = width
	}
	return StyleHighlight.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// Progress Driver
// =============================================================================

// resolveProgress drives the progress display during asset resolution. On a
// terminal it runs a bubbletea program on stderr; otherwise updates go to
// the debug log so piped output stays clean.
type resolveProgress struct {
	program *tea.Program
	done    chan struct{}
	logger  *log.Logger
}

// newResolveProgress starts the display. Func returns the pipeline callback
// and Stop tears the display down; Stop must be called before printing any
// further output.
func newResolveProgress(logger *log.Logger) *resolveProgress {
	p := &resolveProgress{logger: logger}
	if !isTerminal(os.Stderr) {
		return p
	}

	p.program = tea.NewProgram(resolveModel{},
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
	)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
	return p
}

// Func returns the progress callback handed to the pipeline.
func (p *resolveProgress) Func() assets.ProgressFunc {
	return func(loaded, total int) {
		if p.program != nil {
			p.program.Send(resolveProgressMsg{loaded: loaded, total: total})
			return
		}
		p.logger.Debug("resolving assets", "loaded", loaded, "total", total)
	}
}

// Stop quits the program and waits for the terminal to be restored.
// Safe to call when no program was started, and safe to call twice.
func (p *resolveProgress) Stop() {
	if p.program == nil {
		return
	}
	p.program.Send(resolveDoneMsg{})
	<-p.done
	p.program = nil
}

// isTerminal reports whether f is attached to a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
