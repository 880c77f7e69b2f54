package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-news-desk/internal/desk"
	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	topic   string
	calls   int
	next    domain.Article
	nextErr error
	latest  *domain.Article
	history []domain.Article
	err     error
}

func (f *fakeSession) SetTopic(topic string) { f.topic = topic }

func (f *fakeSession) Generate(context.Context) (domain.Article, error) {
	f.calls++
	if f.nextErr != nil {
		f.latest = nil
		f.err = f.nextErr
		return domain.Article{}, f.nextErr
	}
	a := f.next
	f.latest = &a
	f.history = append([]domain.Article{a}, f.history...)
	f.err = nil
	return a, nil
}

func (f *fakeSession) Latest() (domain.Article, bool) {
	if f.latest == nil {
		return domain.Article{}, false
	}
	return *f.latest, true
}

func (f *fakeSession) History() []domain.Article { return f.history }
func (f *fakeSession) Err() error                { return f.err }

func newTestModel(s Session) Model {
	m := New(context.Background(), s, Options{Style: "notty"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	return updated.(Model)
}

func typeTopic(m Model, topic string) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(topic)})
	return updated.(Model)
}

// runCmd executes cmd, flattening batches, and returns the messages produced.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findGenerated(t *testing.T, msgs []tea.Msg) generatedMsg {
	t.Helper()
	for _, msg := range msgs {
		if g, ok := msg.(generatedMsg); ok {
			return g
		}
	}
	t.Fatalf("no generatedMsg among %#v", msgs)
	return generatedMsg{}
}

func TestEnterGeneratesAndRendersArticle(t *testing.T) {
	s := &fakeSession{next: domain.Article{
		Topic:    "monsoon",
		Title:    "Rains return",
		Subtitle: "Kolkata braces",
		Sections: []domain.Section{{Heading: "Forecast", Content: "Heavy showers expected"}},
	}}
	m := typeTopic(newTestModel(s), "monsoon")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.True(t, m.generating)
	assert.Contains(t, m.View(), "Generating...")

	msg := findGenerated(t, runCmd(cmd))
	require.NoError(t, s.Err())
	assert.Equal(t, "monsoon", s.topic)
	assert.Equal(t, 1, s.calls)

	updated, _ = m.Update(msg)
	m = updated.(Model)
	view := m.View()
	assert.False(t, m.generating)
	assert.Contains(t, view, "Rains return")
	assert.Contains(t, view, "Forecast")
	assert.NotContains(t, view, "History")
}

func TestEmptyTopicDoesNothing(t *testing.T) {
	s := &fakeSession{}
	m := typeTopic(newTestModel(s), "   ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, updated.(Model).generating)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, s.calls)
}

func TestKeysIgnoredWhileGenerating(t *testing.T) {
	s := &fakeSession{next: domain.Article{Title: "t"}}
	m := typeTopic(newTestModel(s), "x")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	updated, _ = updated.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.Equal(t, "x", updated.(Model).input.Value())
	assert.Equal(t, 0, s.calls)
}

func TestHistoryListsEarlierArticles(t *testing.T) {
	s := &fakeSession{}
	m := newTestModel(s)
	for _, title := range []string{"First story", "Second story"} {
		s.next = domain.Article{Title: title, Sections: []domain.Section{}}
		m = typeTopic(m, "t")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		updated, _ = updated.(Model).Update(findGenerated(t, runCmd(cmd)))
		m = updated.(Model)
	}

	view := m.View()
	assert.Contains(t, view, "History")
	assert.Contains(t, view, "First story")
	assert.Less(t, strings.Index(view, "Second story"), strings.Index(view, "History"))
}

func TestErrorShownAndLatestCleared(t *testing.T) {
	s := &fakeSession{nextErr: &desk.ResponseError{
		Message: domain.MsgInvalidUpstreamJSON,
		Summary: "502 - Bad Gateway",
	}}
	m := typeTopic(newTestModel(s), "x")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated, _ = updated.(Model).Update(findGenerated(t, runCmd(cmd)))

	view := updated.(Model).View()
	assert.Contains(t, view, "API error")
	assert.Contains(t, view, "502 - Bad Gateway")
}

func TestEscQuits(t *testing.T) {
	m := newTestModel(&fakeSession{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, updated.(Model).View())
}

func TestArticleMarkdown(t *testing.T) {
	md := ArticleMarkdown(domain.Article{
		Title:    "Rains return",
		Subtitle: "Kolkata braces",
		Sections: []domain.Section{{Heading: "Forecast", Content: "Showers"}},
	}, 1)
	assert.Equal(t, "# Rains return\n\n_Kolkata braces_\n\n## Forecast\n\nShowers\n\n", md)

	md = ArticleMarkdown(domain.Article{Title: "t", Markdown: "plain body"}, 2)
	assert.Equal(t, "## t\n\nplain body\n\n", md)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "API error: boom", errorText(&desk.ResponseError{Message: "boom"}))
	wrapped := errors.Join(desk.ErrRequestFailed, errors.New("refused"))
	assert.True(t, strings.HasPrefix(errorText(wrapped), "Request failed: "))
}
