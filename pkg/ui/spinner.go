package ui

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spinner is a loading indicator. On a terminal it animates beside the
// rendered loading text until stopped; elsewhere it prints the text once.
type Spinner struct {
	console *Console

	// OnInterrupt is called when the user presses ctrl+c or esc while the
	// spinner is showing.
	OnInterrupt func()

	mu      sync.Mutex
	program *tea.Program
}

type stopMsg struct{}

type loadingModel struct {
	spinner     spinner.Model
	text        string
	onInterrupt func()
}

func (m loadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m loadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m loadingModel) View() string {
	return m.text + m.spinner.View() + "\n"
}

// Start implements responder.Indicator.
func (s *Spinner) Start(text string) func() {
	c := s.console
	if !c.interactive {
		c.Notice(text)
		return func() {}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = noticeStyle

	p := tea.NewProgram(loadingModel{
		spinner:     sp,
		text:        c.render(text),
		onInterrupt: s.OnInterrupt,
	}, tea.WithOutput(c.out))

	s.mu.Lock()
	s.program = p
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	return func() {
		s.mu.Lock()
		s.program = nil
		s.mu.Unlock()

		p.Send(stopMsg{})
		<-done
	}
}

// Advise implements chat.Advisor. While the spinner is animating the message
// is printed above it instead of through the console.
func (s *Spinner) Advise(msg string) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()

	if p == nil {
		s.console.Advise(msg)
		return
	}
	p.Println(noticeStyle.Render(msg))
}
