package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/domain"
)

type fakePort struct {
	results     []domain.SearchResult
	suggestions []domain.Suggestion
	err         error
	forced      []bool
}

func (f *fakePort) Search(_ context.Context, q string) ([]domain.SearchResult, error) {
	return f.results, f.err
}

func (f *fakePort) RunRumination(_ context.Context, force bool) ([]domain.Suggestion, error) {
	f.forced = append(f.forced, force)
	return f.suggestions, f.err
}

func ready(t *testing.T, p Port) Model {
	t.Helper()
	m, _ := New(context.Background(), p, "3 documents").Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m.(Model)
}

func typeQuery(m Model, q string) Model {
	for _, r := range q {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

// press sends a key and feeds any resulting command's message back into the model.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch msg.(type) {
	case searchDoneMsg, ruminateDoneMsg:
		next, _ = m.Update(msg)
		return next.(Model)
	}
	return m
}

func TestModel_Search(t *testing.T) {
	port := &fakePort{results: []domain.SearchResult{
		{Path: "doc1.md", Title: "Doc One", Excerpt: "good project research", Similarity: 1, RecencyBoost: 1, SentimentBoost: 1.02, Score: 1.02},
		{Path: "doc2.md", Title: "Doc Two", Excerpt: "bad project failure", Score: 0.5},
	}}
	m := typeQuery(ready(t, port), "good research")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, `2 results for "good research"`, m.status)
	view := m.renderCurrentResult()
	assert.Contains(t, view, "Result 1/2  doc1.md")
	assert.Contains(t, view, "sim 1.000 · rec 1.000 · sent 1.020 · score 1.020")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor, "wraps around")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestModel_SearchError(t *testing.T) {
	port := &fakePort{err: errors.New("boom")}
	m := press(t, typeQuery(ready(t, port), "x"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Error: boom", m.status)
	assert.Empty(t, m.results)
}

func TestModel_Ruminate(t *testing.T) {
	port := &fakePort{suggestions: []domain.Suggestion{
		{ATitle: "A", BTitle: "B", Score: 0.9, SharedTerms: []string{"garden"}, Bridge: "A and B connect via garden."},
		{ATitle: "C", BTitle: "D", Score: 0.4},
	}}
	m := press(t, ready(t, port), tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.Equal(t, []bool{true}, port.forced)
	assert.Equal(t, paneRumination, m.pane)
	assert.Equal(t, "2 suggestions", m.status)
	view := m.renderSuggestions()
	assert.Contains(t, view, "A ⇄ B  (score 0.900)")
	assert.Contains(t, view, "A and B connect via garden.")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.sugCursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneSearch, m.pane)
}

func TestModel_NoticeAndQuit(t *testing.T) {
	m := ready(t, &fakePort{})
	next, _ := m.Update(NoticeMsg("index ready"))
	m = next.(Model)
	assert.Equal(t, "index ready", m.status)
	assert.Contains(t, m.View(), "index ready")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHighlightTerms(t *testing.T) {
	out := highlightTerms("Researching gardens daily", []string{"garden"})
	assert.True(t, strings.Contains(out, "Researching"))
	assert.Contains(t, out, "daily")
	assert.Equal(t, "plain", highlightTerms("plain", nil))
}

func TestNotifier_Fallback(t *testing.T) {
	var got []string
	n := NewNotifier(domain.NotifierFunc(func(msg string) { got = append(got, msg) }))
	n.Notify("before attach")
	assert.Equal(t, []string{"before attach"}, got)
}
