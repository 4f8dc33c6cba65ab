package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"insights/internal/domain"
	"insights/internal/tokenizer"
)

// Port is the TUI-facing subset of the insights service.
type Port interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	RunRumination(ctx context.Context, force bool) ([]domain.Suggestion, error)
}

type pane int

const (
	paneSearch pane = iota
	paneRumination
)

// NoticeMsg carries an informational notice into the status line.
type NoticeMsg string

type searchDoneMsg struct {
	query   string
	results []domain.SearchResult
	err     error
}

type ruminateDoneMsg struct {
	suggestions []domain.Suggestion
	err         error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx         context.Context
	service     Port
	input       textinput.Model
	viewport    viewport.Model
	results     []domain.SearchResult
	suggestions []domain.Suggestion
	summary     string
	status      string
	cursor      int
	sugCursor   int
	pane        pane
	ready       bool
	busy        bool
	lastQuery   string
}

// New creates a new TUI model instance.
func New(ctx context.Context, service Port, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Enter searches, ctrl+r ruminates, tab switches panes.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil

	case NoticeMsg:
		m.status = string(msg)
		return m, nil

	case searchDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.results = nil
		} else {
			m.status = fmt.Sprintf("%d results for %q", len(msg.results), msg.query)
			m.results = msg.results
			m.cursor = 0
			m.lastQuery = msg.query
		}
		m.pane = paneSearch
		m.refresh()
		return m, nil

	case ruminateDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Rumination failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("%d suggestions", len(msg.suggestions))
			m.suggestions = msg.suggestions
			m.sugCursor = 0
		}
		m.pane = paneRumination
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = fmt.Sprintf("Searching %q...", q)
				return m, m.searchCmd(q)
			}
		case "ctrl+r":
			if !m.busy {
				m.busy = true
				m.status = "Ruminating..."
				return m, m.ruminateCmd()
			}
			return m, nil
		case "tab":
			if m.pane == paneSearch {
				m.pane = paneRumination
			} else {
				m.pane = paneSearch
			}
			m.refresh()
			return m, nil
		case "down":
			if m.step(1) {
				return m, nil
			}
		case "up":
			if m.step(-1) {
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// step moves the cursor of the active pane. It reports whether there was anything to move over.
func (m *Model) step(d int) bool {
	switch m.pane {
	case paneSearch:
		if len(m.results) == 0 {
			return false
		}
		m.cursor = (m.cursor + d + len(m.results)) % len(m.results)
	case paneRumination:
		if len(m.suggestions) == 0 {
			return false
		}
		m.sugCursor = (m.sugCursor + d + len(m.suggestions)) % len(m.suggestions)
	}
	m.refresh()
	return true
}

func (m Model) searchCmd(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Search(m.ctx, q)
		return searchDoneMsg{query: q, results: res, err: err}
	}
}

func (m Model) ruminateCmd() tea.Cmd {
	return func() tea.Msg {
		sugg, err := m.service.RunRumination(m.ctx, true)
		return ruminateDoneMsg{suggestions: sugg, err: err}
	}
}

func (m *Model) refresh() {
	if m.pane == paneRumination {
		m.viewport.SetContent(m.renderSuggestions())
		return
	}
	m.viewport.SetContent(m.renderCurrentResult())
}

// View renders the TUI layout and current pane.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := "INSIGHTS · search"
	if m.pane == paneRumination {
		title = "INSIGHTS · rumination"
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	head := fmt.Sprintf("Result %d/%d  %s", m.cursor+1, len(m.results), r.Path)
	name := titleStyle.Render(r.Title)
	body := highlightTerms(r.Excerpt, tokenizer.Tokenize(m.lastQuery))
	line := metricStyle.Render(fmt.Sprintf("sim %.3f · rec %.3f · sent %.3f · score %.3f",
		r.Similarity, r.RecencyBoost, r.SentimentBoost, r.Score))
	return head + "\n\n" + name + "\n" + body + "\n\n" + line
}

func (m Model) renderSuggestions() string {
	if len(m.suggestions) == 0 {
		return "No suggestions yet. Press ctrl+r to ruminate."
	}
	var b strings.Builder
	for i, s := range m.suggestions {
		marker := "  "
		if i == m.sugCursor {
			marker = "> "
		}
		line := fmt.Sprintf("%s%s ⇄ %s  (score %.3f)", marker, s.ATitle, s.BTitle, s.Score)
		if i == m.sugCursor {
			line = titleStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	sel := m.suggestions[m.sugCursor]
	b.WriteString("\n")
	b.WriteString(metricStyle.Render(fmt.Sprintf("sim %.3f · link %.3f · novelty %.3f",
		sel.Similarity, sel.LinkAffinity, sel.NoveltyBoost)))
	if len(sel.SharedTerms) > 0 {
		b.WriteString("\nshared: " + strings.Join(sel.SharedTerms, ", "))
	}
	if sel.Bridge != "" {
		b.WriteString("\n" + sel.Bridge)
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	metricStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	wordRe         = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// highlightTerms marks every word of text whose lemma is one of the query tokens.
func highlightTerms(text string, queryTokens []string) string {
	if len(queryTokens) == 0 || strings.TrimSpace(text) == "" {
		return text
	}
	set := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		set[t] = struct{}{}
	}
	return wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := set[tokenizer.Lemmatize(strings.ToLower(w))]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}
