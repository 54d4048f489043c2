package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/renato0307/kboard/internal/k8s"
	"github.com/renato0307/kboard/internal/keyboard"
	"github.com/renato0307/kboard/internal/logging"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	messageTTL          = 4 * time.Second
	// header, tabs, message and help lines
	chromeLines = 4
)

// For mocking in tests
var writeClipboard = clipboard.WriteAll

// Source lists and renders cluster data for a connected client
type Source interface {
	ListWorkloads(ctx context.Context, client *k8s.Client, namespace string) ([]k8s.Workload, error)
	ListNodes(ctx context.Context, client *k8s.Client) ([]k8s.Node, error)
	ResourceYAML(ctx context.Context, client *k8s.Client, kind, namespace, name string) (string, error)
	Describe(client *k8s.Client, kind, namespace, name string) (string, error)
}

// Switcher owns the active client; *k8s.Reloader implements it
type Switcher interface {
	Select(selector string)
	Reload()
	Current() (string, *k8s.Client)
	Pending() (string, uint64)
	Events() <-chan k8s.ClientEvent
}

// Selection is one entry of the context picker
type Selection struct {
	Name   string
	Detail string
}

// SelectionLister returns the choices for the context picker
type SelectionLister func() ([]Selection, error)

// Options tune the dashboard
type Options struct {
	// Namespace limits the workload list; empty lists all namespaces
	Namespace    string
	FetchTimeout time.Duration
	// Initial is shown as connecting until the switcher reports a selection
	Initial string
}

type tab int

const (
	tabWorkloads tab = iota
	tabNodes
)

type mode int

const (
	modeList mode = iota
	modeFilter
	modePicker
	modeDetail
)

type clientEventMsg struct {
	event  k8s.ClientEvent
	closed bool
}

type dataMsg struct {
	client       *k8s.Client
	workloads    []k8s.Workload
	nodes        []k8s.Node
	workloadsErr error
	nodesErr     error
	took         time.Duration
}

type detailMsg struct {
	title   string
	content string
	err     error
}

type selectionsMsg struct {
	choices []Selection
	err     error
}

type clearMessageMsg struct{ seq int }

// Model is the dashboard. It never builds clients itself: selections go to
// the Switcher and the model follows its events.
type Model struct {
	source     Source
	switcher   Switcher
	selections SelectionLister
	theme      *Theme
	keys       *keyboard.Keys
	opts       Options

	width  int
	height int
	tab    tab
	mode   mode

	client      *k8s.Client
	selector    string
	connecting  string
	loading     bool
	refreshedAt time.Time
	refreshTook time.Duration

	workloads        []k8s.Workload
	nodes            []k8s.Node
	visibleWorkloads []k8s.Workload
	visibleNodes     []k8s.Node

	workloadTable table.Model
	nodeTable     table.Model
	pickerTable   table.Model
	choices       []Selection
	filter        textinput.Model
	detail        viewport.Model
	detailTitle   string
	spinner       spinner.Model

	message     string
	messageKind MessageKind
	messageSeq  int
}

// NewModel returns a dashboard following switcher
func NewModel(source Source, switcher Switcher, selections SelectionLister, theme *Theme, opts Options) Model {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}

	newTable := func() table.Model {
		t := table.New(table.WithFocused(true), table.WithHeight(10))
		t.SetStyles(theme.ToTableStyles())
		return t
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter (prefix ! to exclude)"

	m := Model{
		source:        source,
		switcher:      switcher,
		selections:    selections,
		theme:         theme,
		keys:          keyboard.Default(),
		opts:          opts,
		width:         80,
		height:        24,
		workloadTable: newTable(),
		nodeTable:     newTable(),
		pickerTable:   newTable(),
		filter:        filter,
		detail:        viewport.New(80, 20),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.spinner.Style = theme.Message.Loading

	m.selector, m.client = switcher.Current()
	if m.client == nil {
		m.connecting, _ = switcher.Pending()
		if m.connecting == "" {
			m.connecting = opts.Initial
		}
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForEvent(m.switcher.Events())}
	if m.client != nil {
		cmds = append(cmds, fetch(m.source, m.client, m.opts))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clientEventMsg:
		return m.handleClientEvent(msg)

	case dataMsg:
		return m.handleData(msg)

	case detailMsg:
		if msg.err != nil {
			cmd := m.setMessage(msg.err.Error(), MessageError)
			return m, cmd
		}
		m.mode = modeDetail
		m.detailTitle = msg.title
		m.detail.SetContent(msg.content)
		m.detail.GotoTop()
		return m, nil

	case selectionsMsg:
		if msg.err != nil {
			cmd := m.setMessage("Failed to list kubeconfigs: "+msg.err.Error(), MessageError)
			return m, cmd
		}
		m.choices = msg.choices
		rows := make([]table.Row, len(msg.choices))
		for i, c := range msg.choices {
			rows[i] = table.Row{c.Name, c.Detail}
		}
		m.pickerTable.SetRows(rows)
		m.pickerTable.SetCursor(0)
		for i, c := range msg.choices {
			if c.Name == m.selector {
				m.pickerTable.SetCursor(i)
			}
		}
		m.mode = modePicker
		return m, nil

	case clearMessageMsg:
		if msg.seq == m.messageSeq {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == m.keys.ForceQuit {
			return m, tea.Quit
		}
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modePicker:
			return m.updatePicker(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) handleClientEvent(msg clientEventMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		return m, nil
	}
	wait := waitForEvent(m.switcher.Events())
	ev := msg.event

	if pending, _ := m.switcher.Pending(); pending == ev.Selector {
		m.connecting = ""
	}
	if ev.Err != nil {
		text := fmt.Sprintf("Failed to connect to %s: %v", ev.Selector, ev.Err)
		if m.client != nil {
			text += " (still on " + m.selector + ")"
		}
		cmd := tea.Batch(wait, m.setMessage(text, MessageError))
		return m, cmd
	}

	changed := m.client != ev.Client
	m.client = ev.Client
	m.selector = ev.Selector
	if changed {
		m.workloads, m.nodes = nil, nil
		m.applyFilter()
	}
	text := fmt.Sprintf("Connected to %s (%s, %s)", ev.Selector, ev.Client.Host, ev.Client.ServerVersion)
	cmd := tea.Batch(wait, m.setMessage(text, MessageSuccess), m.startFetch())
	return m, cmd
}

func (m Model) handleData(msg dataMsg) (tea.Model, tea.Cmd) {
	if msg.client != m.client {
		// a fetch for a superseded client
		return m, nil
	}
	m.loading = false
	m.refreshedAt = time.Now()
	m.refreshTook = msg.took

	if msg.workloadsErr == nil {
		m.workloads = msg.workloads
	}
	if msg.nodesErr == nil {
		m.nodes = msg.nodes
	}
	m.applyFilter()

	var errs []string
	if msg.workloadsErr != nil {
		errs = append(errs, "workloads: "+msg.workloadsErr.Error())
	}
	if msg.nodesErr != nil {
		errs = append(errs, "nodes: "+msg.nodesErr.Error())
	}
	if len(errs) > 0 {
		cmd := m.setMessage("Failed to fetch "+strings.Join(errs, "; "), MessageError)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.keys.Quit, m.keys.ForceQuit:
		return m, tea.Quit
	case m.keys.NextTab:
		if m.tab == tabWorkloads {
			m.tab = tabNodes
		} else {
			m.tab = tabWorkloads
		}
		return m, nil
	case m.keys.Filter:
		m.mode = modeFilter
		cmd := m.filter.Focus()
		return m, cmd
	case m.keys.Back:
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
		return m, nil
	case m.keys.Refresh:
		if m.client == nil {
			cmd := m.setMessage("Not connected", MessageError)
			return m, cmd
		}
		cmd := m.startFetch()
		return m, cmd
	case m.keys.Reconnect:
		m.switcher.Reload()
		m.connecting = m.selector
		if m.connecting == "" {
			m.connecting, _ = m.switcher.Pending()
		}
		return m, nil
	case m.keys.SwitchContext:
		if m.selections == nil {
			return m, nil
		}
		return m, listSelections(m.selections)
	case m.keys.YAML:
		cmd := m.showDetail(false)
		return m, cmd
	case m.keys.Describe:
		cmd := m.showDetail(true)
		return m, cmd
	case m.keys.Copy:
		cmd := m.copySelected()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.tab == tabWorkloads {
		m.workloadTable, cmd = m.workloadTable.Update(msg)
	} else {
		m.nodeTable, cmd = m.nodeTable.Update(msg)
	}
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.keys.Confirm:
		m.filter.Blur()
		m.mode = modeList
		return m, nil
	case m.keys.Back:
		m.filter.SetValue("")
		m.filter.Blur()
		m.mode = modeList
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.keys.Back, m.keys.Quit:
		m.mode = modeList
		return m, nil
	case m.keys.Confirm:
		m.mode = modeList
		i := m.pickerTable.Cursor()
		if i < 0 || i >= len(m.choices) {
			return m, nil
		}
		name := m.choices[i].Name
		logging.Info("context selected", "selector", name)
		m.switcher.Select(name)
		m.connecting = name
		return m, nil
	}

	var cmd tea.Cmd
	m.pickerTable, cmd = m.pickerTable.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.keys.Back, m.keys.Quit:
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// selected returns the kind, namespace and name under the cursor
func (m Model) selected() (kind, namespace, name string, ok bool) {
	if m.tab == tabNodes {
		i := m.nodeTable.Cursor()
		if i < 0 || i >= len(m.visibleNodes) {
			return "", "", "", false
		}
		return k8s.KindNode, "", m.visibleNodes[i].Name, true
	}
	i := m.workloadTable.Cursor()
	if i < 0 || i >= len(m.visibleWorkloads) {
		return "", "", "", false
	}
	w := m.visibleWorkloads[i]
	return string(w.Kind), w.Namespace, w.Name, true
}

func (m *Model) showDetail(describe bool) tea.Cmd {
	kind, namespace, name, ok := m.selected()
	if !ok || m.client == nil {
		return nil
	}
	source, client, timeout := m.source, m.client, m.opts.FetchTimeout
	ref := strings.ToLower(kind) + "/" + name
	if namespace != "" {
		ref = strings.ToLower(kind) + "/" + namespace + "/" + name
	}

	return func() tea.Msg {
		if describe {
			out, err := source.Describe(client, kind, namespace, name)
			if err != nil {
				return detailMsg{err: fmt.Errorf("failed to describe %s: %w", ref, err)}
			}
			return detailMsg{title: "Describe " + ref, content: out}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		out, err := source.ResourceYAML(ctx, client, kind, namespace, name)
		if err != nil {
			return detailMsg{err: fmt.Errorf("failed to get %s: %w", ref, err)}
		}
		return detailMsg{title: "YAML " + ref, content: out}
	}
}

func (m *Model) copySelected() tea.Cmd {
	kind, namespace, name, ok := m.selected()
	if !ok {
		return nil
	}
	ref := kind + "/" + name
	if namespace != "" {
		ref = kind + "/" + namespace + "/" + name
	}
	if err := writeClipboard(ref); err != nil {
		return m.setMessage("Failed to copy to clipboard: "+err.Error(), MessageError)
	}
	return m.setMessage("Copied "+ref, MessageInfo)
}

// setMessage shows text until it is replaced or expires
func (m *Model) setMessage(text string, kind MessageKind) tea.Cmd {
	m.messageSeq++
	m.message = text
	m.messageKind = kind
	seq := m.messageSeq
	return tea.Tick(messageTTL, func(time.Time) tea.Msg {
		return clearMessageMsg{seq: seq}
	})
}

func (m *Model) startFetch() tea.Cmd {
	m.loading = true
	return fetch(m.source, m.client, m.opts)
}

func (m *Model) applyFilter() {
	query := m.filter.Value()

	m.visibleWorkloads = Filter(m.workloads, query, func(w k8s.Workload) string {
		return w.Namespace + " " + w.Name + " " + string(w.Kind) + " " + string(w.Status)
	})
	rows := make([]table.Row, len(m.visibleWorkloads))
	for i, w := range m.visibleWorkloads {
		rows[i] = WorkloadRow(w)
	}
	m.workloadTable.SetRows(rows)
	clampCursor(&m.workloadTable, len(rows))

	m.visibleNodes = Filter(m.nodes, query, func(n k8s.Node) string {
		return n.Name + " " + n.Status + " " + strings.Join(n.Roles, " ")
	})
	rows = make([]table.Row, len(m.visibleNodes))
	for i, n := range m.visibleNodes {
		rows[i] = NodeRow(n)
	}
	m.nodeTable.SetRows(rows)
	clampCursor(&m.nodeTable, len(rows))
}

func clampCursor(t *table.Model, n int) {
	if t.Cursor() >= n {
		t.SetCursor(max(n-1, 0))
	}
}

func (m *Model) resize() {
	body := max(m.height-chromeLines, 3)

	m.workloadTable.SetColumns(columns(WorkloadHeaders, []int{16, 12, 0, 8, 14, 7, 8, 7}, m.width))
	m.workloadTable.SetHeight(body)
	m.workloadTable.SetWidth(m.width)

	m.nodeTable.SetColumns(columns(NodeHeaders, []int{0, 12, 14, 5, 12, 5, 14, 5, 10, 7}, m.width))
	m.nodeTable.SetHeight(body)
	m.nodeTable.SetWidth(m.width)

	m.pickerTable.SetColumns(columns([]string{"NAME", "CONTEXT"}, []int{24, 0}, m.width))
	m.pickerTable.SetHeight(body)
	m.pickerTable.SetWidth(m.width)

	m.detail.Width = m.width
	m.detail.Height = body - 1
}

// columns sizes one column of width 0 to take the remaining space; each
// cell is padded by two characters
func columns(titles []string, widths []int, total int) []table.Column {
	used := 0
	for _, w := range widths {
		used += w + 2
	}
	flex := max(total-used-2, 20)

	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		w := widths[i]
		if w == 0 {
			w = flex
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

func (m Model) View() string {
	var body string
	switch {
	case m.mode == modeDetail:
		body = m.theme.Header.Render(m.detailTitle) + "\n" + m.detail.View()
	case m.mode == modePicker:
		body = m.pickerTable.View()
	case m.tab == tabNodes:
		body = m.nodeTable.View()
	default:
		body = m.workloadTable.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.tabsView(),
		body,
		m.messageView(),
		m.theme.StatusBar.Render(m.helpText()),
	)
}

func (m Model) headerView() string {
	selector := m.selector
	if selector == "" {
		selector = "not connected"
	}
	info := "ctx: " + selector
	if m.client != nil && m.client.Context != "" {
		info += " (" + m.client.Context + ")"
	}
	namespace := m.opts.Namespace
	if namespace == "" {
		namespace = "all"
	}
	info += "  ns: " + namespace

	left := m.theme.AppTitle.Render("kboard") + " " + m.theme.Header.Render(info)
	if m.refreshedAt.IsZero() {
		return left
	}
	right := m.theme.StatusBar.Render(fmt.Sprintf("refreshed %s (%dms)",
		m.refreshedAt.Format("15:04:05"), m.refreshTook.Milliseconds()))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) tabsView() string {
	tabs := []struct {
		tab   tab
		label string
	}{
		{tabWorkloads, fmt.Sprintf("Workloads (%d)", len(m.visibleWorkloads))},
		{tabNodes, fmt.Sprintf("Nodes (%d)", len(m.visibleNodes))},
	}
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if t.tab == m.tab {
			parts[i] = m.theme.ActiveTab.Render(t.label)
		} else {
			parts[i] = m.theme.Tab.Render(t.label)
		}
	}
	if summary := StatusSummary(m.theme, m.visibleWorkloads); summary != "" && m.tab == tabWorkloads {
		parts = append(parts, "  "+summary)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) messageView() string {
	switch {
	case m.mode == modeFilter:
		return m.filter.View()
	case m.message != "":
		return RenderMessage(m.message, m.messageKind, m.theme, "", m.width)
	case m.connecting != "":
		return RenderMessage("Connecting to "+m.connecting, MessageLoading, m.theme, m.spinner.View(), m.width)
	case m.loading:
		return RenderMessage("Loading", MessageLoading, m.theme, m.spinner.View(), m.width)
	case m.filter.Value() != "":
		return m.theme.StatusBar.Render("filter: " + m.filter.Value())
	}
	return ""
}

func (m Model) helpText() string {
	switch m.mode {
	case modeFilter:
		return "enter: apply • esc: clear"
	case modePicker:
		return "↑/↓: navigate • enter: connect • esc: back"
	case modeDetail:
		return "↑/↓/pgup/pgdn: scroll • esc: back"
	}
	return m.keys.ListHelp()
}

func waitForEvent(events <-chan k8s.ClientEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return clientEventMsg{event: ev, closed: !ok}
	}
}

func listSelections(lister SelectionLister) tea.Cmd {
	return func() tea.Msg {
		choices, err := lister()
		return selectionsMsg{choices: choices, err: err}
	}
}

func fetch(source Source, client *k8s.Client, opts Options) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.FetchTimeout)
		defer cancel()

		start := time.Now()
		msg := dataMsg{client: client}
		msg.workloads, msg.workloadsErr = source.ListWorkloads(ctx, client, opts.Namespace)
		msg.nodes, msg.nodesErr = source.ListNodes(ctx, client)
		msg.took = time.Since(start)
		return msg
	}
}
