package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MediaListView ViewState = iota
	ConfirmView
	AnalyzeView
	ResultView
)

// MediaLister fetches the media library for the selection view.
type MediaLister interface {
	ListMedia(ctx context.Context, token string) ([]models.Media, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	backend      MediaLister
	engine       tasks.AnalysisEngine
	token        string
	opts         models.AnalysisOptions
	width        int
	height       int
	mediaList    list.Model
	media        []models.Media
	selected     map[string]bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	run          *models.BatchRun
	err          error
	help         help.Model
	keys         keyMap
}

type mediaFetchedMsg struct {
	media []models.Media
	err   error
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	run *models.BatchRun
	err error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, backend MediaLister, engine tasks.AnalysisEngine, token string, opts models.AnalysisOptions) *Model {
	return &Model{
		ctx:      ctx,
		view:     MediaListView,
		backend:  backend,
		engine:   engine,
		token:    token,
		opts:     opts,
		selected: map[string]bool{},
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the media library.
func (m *Model) Init() tea.Cmd {
	return m.fetchMedia()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.mediaList.Width() == 0 {
			m.mediaList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MediaListView:
			return m.handleMediaListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case mediaFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.media = msg.media
		items := make([]list.Item, len(msg.media))
		for i, item := range msg.media {
			items[i] = mediaItem{media: item, selected: m.selected}
		}
		m.mediaList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.mediaList.Title = "Media Library"
		m.mediaList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.run = msg.run
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case MediaListView:
		return m.renderMediaList()
	case ConfirmView:
		return m.renderConfirm()
	case AnalyzeView:
		return m.renderAnalyze()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleMediaListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if item, isMedia := m.mediaList.SelectedItem().(mediaItem); isMedia {
			m.selected[item.media.ID] = !m.selected[item.media.ID]
		}
		return m, nil
	case "enter":
		if len(m.selection()) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.mediaList, cmd = m.mediaList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = MediaListView
		return m, nil
	case "y":
		m.view = AnalyzeView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = MediaListView
		m.selected = map[string]bool{}
		m.run = nil
		m.err = nil
		return m, m.fetchMedia()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == MediaListView {
		m.mediaList, cmd = m.mediaList.Update(msg)
	}
	return m, cmd
}

// selection returns the selected media in library order.
func (m *Model) selection() []models.Media {
	picked := make([]models.Media, 0, len(m.selected))
	for _, item := range m.media {
		if m.selected[item.ID] {
			picked = append(picked, item)
		}
	}
	return picked
}

func (m *Model) fetchMedia() tea.Cmd {
	return func() tea.Msg {
		media, err := m.backend.ListMedia(m.ctx, m.token)
		return mediaFetchedMsg{media: media, err: err}
	}
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		run, err := m.engine.Run(m.ctx, progressChan, m.selection(), m.opts)
		m.run = run
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{run: m.run, err: m.err}
		}

		update, open := <-m.progressChan
		if !open {
			return runCompleteMsg{run: m.run, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderMediaList() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	count := fmt.Sprintf("%d selected", len(m.selection()))
	return fmt.Sprintf("%s\n%s\n\n%s", m.mediaList.View(), styles.help.Render(count), helpView)
}

func (m *Model) renderConfirm() string {
	picked := m.selection()
	title := styles.title.Render(fmt.Sprintf("Analyze %d media items?", len(picked)))

	model := m.opts.Model
	if model == "" {
		model = "backend default"
	}
	info := fmt.Sprintf("\nModel: %s\nItems: %d\n", model, len(picked))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderAnalyze() string {
	title := styles.title.Render("Analyzing Media")

	var phase string
	switch m.progress.Phase {
	case tasks.Submit:
		phase = fmt.Sprintf("Submitting (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Poll:
		phase = fmt.Sprintf("Waiting on analysis (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Wait:
		phase = "Pausing between submissions..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Batch failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.run == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	counts := m.run.Counts()
	title := styles.ok.Render("✓ Batch Complete")
	info := fmt.Sprintf("\n%d succeeded, %d failed (of %d)", counts.Completed, counts.Failed, counts.Total)

	var failed string
	if counts.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d items failed:", counts.Failed)))
		for _, task := range m.run.Tasks() {
			if task.Status == models.TaskFailed {
				failed += fmt.Sprintf("\n  • %s: %s", task.MediaID, task.Error)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
