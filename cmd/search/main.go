// Command search is a small terminal client for the search API.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"newsvec/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type searchResponse struct {
	Count   int             `json:"count"`
	Results []types.Article `json:"results"`
}

type searchDoneMsg struct {
	results []types.Article
}

type searchErrMsg struct {
	err error
}

type model struct {
	apiURL    string
	query     string
	results   []types.Article
	searching bool
	searched  bool
	err       error
}

func newModel(apiURL string) model {
	return model{apiURL: apiURL}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.searching || strings.TrimSpace(m.query) == "" {
				return m, nil
			}
			m.searching = true
			m.err = nil
			return m, searchCmd(m.apiURL, m.query)
		case tea.KeyBackspace:
			if len(m.query) > 0 {
				runes := []rune(m.query)
				m.query = string(runes[:len(runes)-1])
			}
			return m, nil
		case tea.KeyRunes:
			m.query += string(msg.Runes)
			return m, nil
		case tea.KeySpace:
			m.query += " "
			return m, nil
		}

	case searchDoneMsg:
		m.searching = false
		m.searched = true
		m.results = msg.results
		return m, nil

	case searchErrMsg:
		m.searching = false
		m.searched = true
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("newsvec search") + "\n\n")
	b.WriteString(promptStyle.Render("query> ") + m.query + "\n\n")

	switch {
	case m.searching:
		b.WriteString(metaStyle.Render("searching...") + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	case m.searched && len(m.results) == 0:
		b.WriteString(metaStyle.Render("no results") + "\n")
	default:
		for i, a := range m.results {
			b.WriteString(resultStyle.Render(fmt.Sprintf("%2d. %s", i+1, a.Title)) + "\n")
			b.WriteString(metaStyle.Render(fmt.Sprintf("    distance=%.4f  %s", a.Distance, a.Link)) + "\n")
		}
	}

	b.WriteString("\n" + metaStyle.Render("enter: search  esc: quit"))
	return b.String()
}

func searchCmd(apiURL, query string) tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 30 * time.Second}

		endpoint := fmt.Sprintf("%s/api/articles/search?q=%s&limit=10", apiURL, url.QueryEscape(query))
		resp, err := client.Get(endpoint)
		if err != nil {
			return searchErrMsg{err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return searchErrMsg{err: fmt.Errorf("search failed with status %d", resp.StatusCode)}
		}

		var parsed searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return searchErrMsg{err: err}
		}
		return searchDoneMsg{results: parsed.Results}
	}
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	if _, err := tea.NewProgram(newModel(apiURL)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
