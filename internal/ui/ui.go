package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/screener/internal/batch"
	"github.com/desertthunder/screener/internal/formatter"
	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/workflow"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	DetailView
	BatchConfirmView
	ResultView
)

// Model represents the review queue application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	svc        services.Review
	controller *workflow.Controller
	orch       *batch.Orchestrator
	gate       workflow.PolicyFunc
	width      int
	height     int
	queue      list.Model
	marked     map[string]bool
	detail     *models.Asset
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a review queue model with the provided dependencies.
// gate reflects the live policy snapshot; nil permits everything.
func NewModel(ctx context.Context, svc services.Review, controller *workflow.Controller, orch *batch.Orchestrator, gate workflow.PolicyFunc) *Model {
	return &Model{
		ctx:        ctx,
		view:       QueueView,
		svc:        svc,
		controller: controller,
		orch:       orch,
		gate:       gate,
		marked:     map[string]bool{},
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching the pending queue.
func (m *Model) Init() tea.Cmd {
	return m.fetchAssets()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.queue.Width() == 0 {
			m.queue.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case BatchConfirmView:
			return m.handleBatchConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case assetsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.controller.TrackPage(msg.page)
		items := make([]list.Item, len(msg.page.Items))
		for i, asset := range msg.page.Items {
			items[i] = assetItem{asset: asset}
		}
		m.queue = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.queue.Title = "Review Queue"
		m.queue.SetSize(m.width-4, m.height-8)
		return m, nil

	case assetFetchedMsg:
		if msg.err != nil {
			m.status = workflow.MessageFor(msg.err)
			return m, nil
		}
		m.detail = msg.asset
		m.view = DetailView
		return m, nil

	case decisionDoneMsg:
		return m.handleDecisionDone(msg)

	case batchQueuedMsg:
		if msg.err != nil {
			m.status = workflow.MessageFor(msg.err)
			return m, nil
		}
		m.view = BatchConfirmView
		return m, tea.Batch(m.tick(), m.awaitBatch())

	case batchDoneMsg:
		m.view = ResultView
		return m, nil

	case tickMsg:
		if m.view == BatchConfirmView {
			return m, m.tick()
		}
		return m, nil
	}

	if m.view == QueueView {
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case QueueView:
		return m.renderQueue()
	case DetailView:
		return m.renderDetail()
	case BatchConfirmView:
		return m.renderBatchConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.selected(); ok {
			return m, m.fetchAsset(item.asset.ID)
		}
	case "k":
		return m.decideSelected(models.ActionKeep)
	case "r":
		return m.decideSelected(models.ActionReject)
	case "c":
		return m.decideSelected(models.ActionClear)
	case " ":
		if item, ok := m.selected(); ok {
			m.toggleMark(item)
		}
		return m, nil
	case "m":
		if m.gate != nil && !m.gate(services.FlagBatchMoves) {
			m.status = workflow.MessageFor(shared.ErrMovesDisabled)
			return m, nil
		}
		ids := m.markedIDs()
		if len(ids) == 0 {
			m.status = "no assets marked for move"
			return m, nil
		}
		return m, m.queueBatch(ids)
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.detail = nil
		m.view = QueueView
		return m, nil
	case "k":
		return m.decideSelected(models.ActionKeep)
	case "r":
		return m.decideSelected(models.ActionReject)
	case "c":
		return m.decideSelected(models.ActionClear)
	}
	return m, nil
}

func (m *Model) handleBatchConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y":
		if err := m.orch.ConfirmNow(); err != nil {
			m.status = workflow.MessageFor(err)
		}
		return m, nil
	case "u", "esc":
		if m.orch.CancelPending() {
			m.status = "batch move cancelled"
			m.view = QueueView
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.orch.Reset()
		m.marked = map[string]bool{}
		m.status = ""
		m.view = QueueView
		return m, m.fetchAssets()
	}
	return m, nil
}

func (m *Model) handleDecisionDone(msg decisionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = workflow.MessageFor(msg.err)
		if m.controller.NeedsRefresh(msg.id) {
			m.status = fmt.Sprintf("%s (press enter to reload)", m.status)
		}
		return m, nil
	}
	if !msg.changed {
		m.status = "already in that state"
		return m, nil
	}
	m.status = fmt.Sprintf("decision recorded for %s", msg.id)
	if state, ok := m.controller.State(msg.id); ok {
		m.updateItemState(msg.id, state)
	}
	return m, nil
}

func (m *Model) selected() (assetItem, bool) {
	item, ok := m.queue.SelectedItem().(assetItem)
	return item, ok
}

func (m *Model) decideSelected(action models.DecisionAction) (tea.Model, tea.Cmd) {
	var id string
	if m.view == DetailView && m.detail != nil {
		id = m.detail.Summary.ID
	} else if item, ok := m.selected(); ok {
		id = item.asset.ID
	}
	if id == "" {
		return m, nil
	}
	return m, m.decide(id, action)
}

func (m *Model) toggleMark(item assetItem) {
	id := item.asset.ID
	m.marked[id] = !m.marked[id]
	if !m.marked[id] {
		delete(m.marked, id)
	}
	item.marked = m.marked[id]
	m.queue.SetItem(m.queue.Index(), item)
}

func (m *Model) markedIDs() []string {
	ids := make([]string, 0, len(m.marked))
	for _, item := range m.queue.Items() {
		if a, ok := item.(assetItem); ok && m.marked[a.asset.ID] {
			ids = append(ids, a.asset.ID)
		}
	}
	return ids
}

func (m *Model) updateItemState(id string, state models.AssetState) {
	for i, item := range m.queue.Items() {
		if a, ok := item.(assetItem); ok && a.asset.ID == id {
			a.asset.State = state
			m.queue.SetItem(i, a)
			return
		}
	}
	if m.detail != nil && m.detail.Summary.ID == id {
		m.detail.Summary.State = state
	}
}

func (m *Model) fetchAssets() tea.Cmd {
	return func() tea.Msg {
		page, err := m.svc.ListAssets(m.ctx, services.ListOpts{State: models.DecisionPending})
		return assetsFetchedMsg{page: page, err: err}
	}
}

func (m *Model) fetchAsset(id string) tea.Cmd {
	return func() tea.Msg {
		asset, err := m.svc.GetAsset(m.ctx, id)
		return assetFetchedMsg{asset: asset, err: err}
	}
}

func (m *Model) decide(id string, action models.DecisionAction) tea.Cmd {
	return func() tea.Msg {
		changed, err := m.controller.Decide(m.ctx, id, action)
		return decisionDoneMsg{id: id, changed: changed, err: err}
	}
}

func (m *Model) queueBatch(ids []string) tea.Cmd {
	return func() tea.Msg {
		if err := m.orch.SetSelection(ids); err != nil {
			return batchQueuedMsg{err: err}
		}
		if err := m.orch.Preview(m.ctx); err != nil {
			return batchQueuedMsg{err: err}
		}
		return batchQueuedMsg{err: m.orch.QueueExecution(m.ctx, "move")}
	}
}

func (m *Model) awaitBatch() tea.Cmd {
	return func() tea.Msg {
		_ = m.orch.Await(m.ctx)
		return batchDoneMsg{snap: m.orch.Snapshot()}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) renderQueue() string {
	helpKeys := []key.Binding{m.keys.keep, m.keys.reject, m.keys.clear, m.keys.mark, m.keys.batch, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	out := fmt.Sprintf("%s\n\n%s", m.queue.View(), helpView)
	if m.status != "" {
		out = fmt.Sprintf("%s\n%s", out, styles.warn.Render(m.status))
	}
	return out
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	title := styles.title.Render(m.detail.Summary.Title)
	body := formatter.AssetDetail(m.detail)
	helpKeys := []key.Binding{m.keys.keep, m.keys.reject, m.keys.clear, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	out := fmt.Sprintf("%s\n%s\n%s", title, body, helpView)
	if m.status != "" {
		out = fmt.Sprintf("%s\n%s", out, styles.warn.Render(m.status))
	}
	return out
}

func (m *Model) renderBatchConfirm() string {
	snap := m.orch.Snapshot()
	title := styles.title.Render(fmt.Sprintf("Move %d assets?", len(snap.Selection)))
	timeline := formatter.Timeline(batch.Timeline(snap.Phase))

	var countdown string
	if snap.Phase == batch.PendingExecution {
		remaining := snap.Remaining(time.Now()).Round(time.Second)
		countdown = styles.warn.Render(fmt.Sprintf("executing in %s", remaining))
	} else {
		countdown = fmt.Sprintf("phase: %s", snap.Phase)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.undo, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, timeline, countdown, helpView)
}

func (m *Model) renderResult() string {
	snap := m.orch.Snapshot()

	var b strings.Builder
	if snap.Err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("batch move failed: %s", workflow.MessageFor(snap.Err))))
	} else {
		b.WriteString(styles.ok.Render("batch move complete"))
	}
	b.WriteString("\n\n")
	if snap.Report != nil {
		b.WriteString(formatter.Report(snap.Report))
		b.WriteString("\n")
	}
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}
