// Package console renders voice navigation output in a terminal. It stands
// in for the dashboard when running from the command line.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"voicewell/internal/domain"
	"voicewell/internal/ports"
)

const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
	colorPeach    lipgloss.Color = "#fab387"
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(colorOverlay1).Width(10)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorSubtext0)
	textStyle   = lipgloss.NewStyle().Foreground(colorText)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	panelStyle  = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	speakStyle  = lipgloss.NewStyle().Foreground(colorTeal).Italic(true)
	popupBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPeach).Padding(0, 1)
	popupTitle  = lipgloss.NewStyle().Foreground(colorPeach).Bold(true)
	phaseStyles = map[domain.Phase]lipgloss.Style{
		domain.PhaseIdle:       mutedStyle,
		domain.PhaseListening:  okStyle,
		domain.PhaseRestarting: warnStyle,
		domain.PhaseErrored:    errorStyle,
	}
)

// Printer writes one styled line per UI effect. It satisfies every
// outward-facing port so a terminal session can run without a webview.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

func (p *Printer) line(label string, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, labelStyle.Render(label)+body)
}

func (p *Printer) SessionStateChanged(state domain.SessionState) {
	style, ok := phaseStyles[state.Phase]
	if !ok {
		style = mutedStyle
	}
	body := style.Render(string(state.Phase))
	if state.CurrentTranscript != "" {
		body += " " + mutedStyle.Render("…"+state.CurrentTranscript)
	}
	if state.Error != "" {
		body += " " + errorStyle.Render(state.Error)
	}
	p.line("state", body)
}

func (p *Printer) PartialTranscript(text string) {
	if !p.verbose {
		return
	}
	p.line("hearing", mutedStyle.Render(text))
}

func (p *Printer) CommandHandled(cmd domain.Command) {
	if !cmd.Recognized {
		p.line("command", warnStyle.Render(cmd.Text))
		return
	}
	p.line("command", textStyle.Render(cmd.Text)+" "+mutedStyle.Render(fmt.Sprintf("-> %s (%.2f)", cmd.Intent, cmd.Confidence)))
}

func (p *Printer) SessionError(code domain.ErrorCode, detail string) {
	p.line("error", errorStyle.Render(string(code))+" "+textStyle.Render(detail))
}

func (p *Printer) FocusPanel(panel domain.Panel) {
	p.line("focus", panelStyle.Render(string(panel)))
}

func (p *Printer) ShowPanelPopup(popup domain.Popup) {
	body := popupTitle.Render(popup.Title) + "\n" + textStyle.Render(popup.Message)
	if popup.AltText != "" {
		body += "\n" + mutedStyle.Render(popup.AltText)
	}
	rendered := popupBorder.Render(body)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, rendered)
}

func (p *Printer) Hide() {
	if p.verbose {
		p.line("popup", mutedStyle.Render("closed"))
	}
}

func (p *Printer) Announce(text string, priority domain.Priority) {
	if !p.verbose {
		return
	}
	p.line("aria", mutedStyle.Render("["+string(priority)+"] ")+textStyle.Render(text))
}

// Speak prints the utterance; pair it with a real synthesizer through Tee.
func (p *Printer) Speak(text string, _ ports.SpeechOptions) {
	p.line("speak", speakStyle.Render(strings.TrimSpace(text)))
}

func (p *Printer) Cancel() {}

// Tee fans speech out to several synthesizers.
type Tee []ports.Synthesizer

func (t Tee) Speak(text string, opts ports.SpeechOptions) {
	for _, s := range t {
		s.Speak(text, opts)
	}
}

func (t Tee) Cancel() {
	for _, s := range t {
		s.Cancel()
	}
}
