package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/samvad-hq/samvad-news-desk/internal/desk"
	"github.com/samvad-hq/samvad-news-desk/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Faint(true)
)

const headerHeight = 6

// Session is the part of desk.Session the view drives.
type Session interface {
	SetTopic(topic string)
	Generate(ctx context.Context) (domain.Article, error)
	Latest() (domain.Article, bool)
	History() []domain.Article
	Err() error
}

// Options tune rendering. Style is a glamour style name; "auto" follows the terminal.
type Options struct {
	Style string
}

// generatedMsg reports that a Generate call finished. The outcome is read back
// from the session.
type generatedMsg struct{}

// Model is the admin screen: topic input, latest article and history.
type Model struct {
	ctx        context.Context
	session    Session
	input      textinput.Model
	spinner    spinner.Model
	viewport   viewport.Model
	style      string
	generating bool
	ready      bool
	quitting   bool
}

// New builds the admin model around session. ctx bounds every generation request.
func New(ctx context.Context, session Session, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter topic"
	ti.CharLimit = 200
	ti.Width = 60
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))

	style := opts.Style
	if style == "" {
		style = "auto"
	}

	return Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		spinner:  s,
		viewport: newViewport(80, 20),
		style:    style,
	}
}

// newViewport scrolls with arrows and page keys only, so typing never scrolls.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}
	return vp
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - headerHeight
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.ready = true
		m.viewport.SetContent(m.renderContent())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		}
		if m.generating {
			// Input is frozen while a request is in flight.
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			m.session.SetTopic(m.input.Value())
			m.generating = true
			return m, tea.Batch(m.spinner.Tick, m.generate())
		}

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case generatedMsg:
		m.generating = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// generate runs one Generate call off the update loop.
func (m Model) generate() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		_, _ = session.Generate(ctx)
		return generatedMsg{}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("AI News Admin"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if m.generating {
		b.WriteString("  " + m.spinner.View() + " Generating...")
	}
	b.WriteString("\n")

	if err := m.session.Err(); err != nil && !m.generating {
		b.WriteString(errorStyle.Render(errorText(err)))
		b.WriteString("\n")
	}

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter: generate • ↑/↓ pgup/pgdn: scroll • esc/ctrl+c: quit"))
	return b.String()
}

// renderContent draws the latest article and, below it, every earlier one.
func (m Model) renderContent() string {
	var md strings.Builder

	if latest, ok := m.session.Latest(); ok {
		md.WriteString(ArticleMarkdown(latest, 1))
	}

	history := m.session.History()
	if len(history) > 1 {
		md.WriteString("\n---\n\n# History\n\n")
		for _, a := range history[1:] {
			md.WriteString(ArticleMarkdown(a, 2))
			md.WriteString("\n")
		}
	}

	if md.Len() == 0 {
		return ""
	}

	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("Failed to create markdown renderer: %v", err))
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("Failed to render markdown: %v", err))
	}
	return strings.TrimRight(out, "\n")
}

// ArticleMarkdown lays an article out as markdown with its title at heading level.
// An article without sections shows its raw markdown body instead.
func ArticleMarkdown(a domain.Article, level int) string {
	h := strings.Repeat("#", level)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", h, a.Title)
	if a.Subtitle != "" {
		fmt.Fprintf(&b, "_%s_\n\n", a.Subtitle)
	}
	if len(a.Sections) == 0 && a.Markdown != "" {
		b.WriteString(a.Markdown)
		b.WriteString("\n\n")
		return b.String()
	}
	for _, s := range a.Sections {
		fmt.Fprintf(&b, "%s# %s\n\n%s\n\n", h, s.Heading, s.Content)
	}
	return b.String()
}

func errorText(err error) string {
	var respErr *desk.ResponseError
	switch {
	case errors.As(err, &respErr):
		return "API error: " + respErr.Error()
	case errors.Is(err, desk.ErrRequestFailed):
		return "Request failed: " + err.Error()
	default:
		return err.Error()
	}
}
