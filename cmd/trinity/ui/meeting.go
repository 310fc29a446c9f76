package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"trinity/internal/pool"
	"trinity/internal/provider"
)

// WorkerEventMsg carries a pool lifecycle event into the meeting view.
// The driving command forwards pool events with Program.Send.
type WorkerEventMsg struct {
	Event pool.Event
}

// MeetingDoneMsg signals that the meeting call returned.
type MeetingDoneMsg struct {
	Ensemble *pool.Ensemble
	Err      error
}

// MeetingModel is the live view of one trinity meeting: a status row per
// member, updated from pool events while the meeting runs.
type MeetingModel struct {
	styles  Styles
	spinner spinner.Model

	prompt    string
	providers []provider.Name
	workers   map[provider.Name]*pool.Worker

	ensemble *pool.Ensemble
	err      error
	done     bool
	canceled bool
	started  time.Time
	width    int
}

// NewMeetingModel creates the view for a meeting over the given providers.
func NewMeetingModel(styles Styles, prompt string, providers []provider.Name) MeetingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return MeetingModel{
		styles:    styles,
		spinner:   sp,
		prompt:    prompt,
		providers: providers,
		workers:   make(map[provider.Name]*pool.Worker, len(providers)),
		started:   time.Now(),
		width:     80,
	}
}

// Init starts the spinner.
func (m MeetingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m MeetingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case WorkerEventMsg:
		if w := msg.Event.Worker; w != nil {
			m.workers[w.Provider] = w
		}
		return m, nil

	case MeetingDoneMsg:
		m.done = true
		m.ensemble = msg.Ensemble
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the meeting status.
func (m MeetingModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Trinity Meeting "))
	sb.WriteString("\n\n")

	prompt := m.prompt
	if max := m.width - 12; max > 10 && len(prompt) > max {
		prompt = prompt[:max-3] + "..."
	}
	sb.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("\"%s\"", prompt)))
	sb.WriteString("\n\n")

	for _, name := range m.providers {
		sb.WriteString("  ")
		sb.WriteString(m.styles.ProviderBadge(name))
		sb.WriteString("  ")

		w, ok := m.workers[name]
		if !ok {
			sb.WriteString(m.styles.Muted.Render(StatusGlyph(pool.StatusPending) + " waiting"))
			sb.WriteString("\n")
			continue
		}

		switch w.Status {
		case pool.StatusRunning:
			sb.WriteString(m.spinner.View())
			sb.WriteString(m.styles.Info.Render(" running "))
			sb.WriteString(m.styles.Muted.Render(workerDuration(w)))
		default:
			style := m.styles.StatusStyle(w.Status)
			sb.WriteString(style.Render(StatusGlyph(w.Status) + " " + string(w.Status)))
			sb.WriteString(" ")
			sb.WriteString(m.styles.Muted.Render(workerDuration(w)))
			if preview := resultPreview(w, 48); preview != "" {
				sb.WriteString(m.styles.Muted.Render("  " + preview))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case m.done && m.ensemble != nil && m.ensemble.Success:
		sb.WriteString(m.styles.Success.Render("✓ meeting complete"))
	case m.done:
		sb.WriteString(m.styles.Error.Render("✗ meeting finished with failures"))
	default:
		sb.WriteString(m.styles.Footer.Render(fmt.Sprintf("%s elapsed · ctrl+c to abort",
			time.Since(m.started).Round(time.Second))))
	}
	sb.WriteString("\n")

	return sb.String()
}

// Canceled reports whether the user aborted the meeting.
func (m MeetingModel) Canceled() bool {
	return m.canceled
}

// Result returns the finished ensemble, if the meeting completed.
func (m MeetingModel) Result() (*pool.Ensemble, error) {
	return m.ensemble, m.err
}
