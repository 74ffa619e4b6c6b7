package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CandidateListView ViewState = iota
	DownloadView
	ResultView
)

// Model drives the remote-play workflow: pick a search candidate, watch the
// acquisition progress, see the playback result.
type Model struct {
	ctx          context.Context
	view         ViewState
	orchestrator *session.Orchestrator
	query        string
	width        int
	height       int

	candidateList list.Model
	candidates    []models.RemoteCandidate
	selected      *candidateItem

	progressChan chan int
	percent      int
	bar          progress.Model
	spin         spinner.Model

	message string
	err     error
	help    help.Model
	keys    keyMap
}

type candidatesFetchedMsg struct {
	candidates []models.RemoteCandidate
	err        error
}

type progressMsg int

type playDoneMsg struct {
	message string
	err     error
}

// NewModel creates a remote-play TUI over the orchestrator for query.
func NewModel(ctx context.Context, orchestrator *session.Orchestrator, query string) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:          ctx,
		view:         CandidateListView,
		orchestrator: orchestrator,
		query:        query,
		bar:          progress.New(progress.WithDefaultGradient()),
		spin:         spin,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init fetches remote candidates for the query.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCandidates(), m.spin.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.candidateList.Width() == 0 {
			m.candidateList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CandidateListView:
			return m.handleCandidateKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.enter) {
				return m, tea.Quit
			}
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case candidatesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.candidates = msg.candidates
		items := make([]list.Item, len(msg.candidates))
		for i, candidate := range msg.candidates {
			items[i] = candidateItem{rank: i + 1, candidate: candidate}
		}
		m.candidateList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.candidateList.Title = fmt.Sprintf("Results for %q", m.query)
		m.candidateList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressMsg:
		m.percent = int(msg)
		return m, m.waitForProgress()

	case playDoneMsg:
		m.message = msg.message
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	if m.view == CandidateListView && m.candidateList.Width() != 0 {
		var cmd tea.Cmd
		m.candidateList, cmd = m.candidateList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CandidateListView:
		return m.renderCandidateList()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Err returns the terminal error, if any, after the program has exited.
func (m *Model) Err() error { return m.err }

func (m *Model) handleCandidateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.candidates == nil:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		selected := m.candidateList.SelectedItem()
		if item, ok := selected.(candidateItem); ok {
			m.selected = &item
			m.view = DownloadView
			return m, tea.Batch(m.startPlay(item.rank), m.spin.Tick)
		}
	}

	var cmd tea.Cmd
	m.candidateList, cmd = m.candidateList.Update(msg)
	return m, cmd
}

func (m *Model) fetchCandidates() tea.Cmd {
	return func() tea.Msg {
		candidates, err := m.orchestrator.RemoteSearch(m.ctx, m.query)
		return candidatesFetchedMsg{candidates: candidates, err: err}
	}
}

func (m *Model) startPlay(rank int) tea.Cmd {
	m.progressChan = make(chan int, 50)
	progressChan := m.progressChan

	go func() {
		message, err := m.orchestrator.RemotePlay(m.ctx, rank, func(percent int) {
			select {
			case progressChan <- percent:
			default:
			}
		})
		m.message = message
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return playDoneMsg{message: m.message, err: m.err}
		}
		percent, ok := <-m.progressChan
		if !ok {
			return playDoneMsg{message: m.message, err: m.err}
		}
		return progressMsg(percent)
	}
}

func (m *Model) renderCandidateList() string {
	if m.candidates == nil {
		return fmt.Sprintf("%s searching %q...", m.spin.View(), m.query)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.candidateList.View(), helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Acquiring " + m.selected.candidate.Title)
	phase := "downloading"
	if m.percent >= 50 {
		phase = "transcoding"
	}
	bar := m.bar.ViewAs(float64(m.percent) / 100)
	return fmt.Sprintf("%s\n%s %s\n\n%s\n", title, m.spin.View(), phase, bar)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Failed: %v", m.err)), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", styles.ok.Render("✓ "+m.message), helpView)
}
