package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/kboard/internal/k8s"
	"github.com/renato0307/kboard/internal/quantity"
	"github.com/renato0307/kboard/internal/status"
)

type fakeSource struct {
	workloads    []k8s.Workload
	nodes        []k8s.Node
	workloadsErr error
	nodesErr     error
	namespaces   []string
}

func (f *fakeSource) ListWorkloads(_ context.Context, _ *k8s.Client, namespace string) ([]k8s.Workload, error) {
	f.namespaces = append(f.namespaces, namespace)
	return f.workloads, f.workloadsErr
}

func (f *fakeSource) ListNodes(context.Context, *k8s.Client) ([]k8s.Node, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeSource) ResourceYAML(_ context.Context, _ *k8s.Client, kind, namespace, name string) (string, error) {
	return "kind: " + kind + "\nmetadata:\n  name: " + name + "\n  namespace: " + namespace + "\n", nil
}

func (f *fakeSource) Describe(_ *k8s.Client, kind, _, name string) (string, error) {
	if name == "broken" {
		return "", errors.New("describer failed")
	}
	return "Name: " + name + "\nKind: " + kind + "\n", nil
}

type fakeSwitcher struct {
	selector string
	client   *k8s.Client
	pending  string
	selected []string
	reloads  int
	events   chan k8s.ClientEvent
}

func newFakeSwitcher(pending string) *fakeSwitcher {
	return &fakeSwitcher{pending: pending, events: make(chan k8s.ClientEvent, 1)}
}

func (f *fakeSwitcher) Select(selector string) {
	f.selected = append(f.selected, selector)
	f.pending = selector
}
func (f *fakeSwitcher) Reload()                        { f.reloads++ }
func (f *fakeSwitcher) Current() (string, *k8s.Client) { return f.selector, f.client }
func (f *fakeSwitcher) Pending() (string, uint64)      { return f.pending, 1 }
func (f *fakeSwitcher) Events() <-chan k8s.ClientEvent { return f.events }

func testWorkloads() []k8s.Workload {
	return []k8s.Workload{
		{
			ResourceMetadata: k8s.ResourceMetadata{Namespace: "default", Name: "web", Age: 2 * time.Hour},
			Kind:             status.KindDeployment,
			Status:           status.Available,
			Ready:            "3/3",
			CPURequest:       quantity.CPU("750m"),
			MemoryRequest:    quantity.Memory("1536Mi"),
		},
		{
			ResourceMetadata: k8s.ResourceMetadata{Namespace: "default", Name: "db", Age: 24 * time.Hour},
			Kind:             status.KindStatefulSet,
			Status:           status.Progressing,
			Ready:            "1/2",
		},
	}
}

func testNodes() []k8s.Node {
	return []k8s.Node{
		{
			ResourceMetadata: k8s.ResourceMetadata{Name: "node-a", Age: 48 * time.Hour},
			Status:           "Ready",
			Roles:            []string{"worker"},
			Pods:             12,
			CPUAllocatable:   quantity.CPU("4"),
			CPURequested:     quantity.CPU("3400m"),
			CPUPercent:       85,
			Hotspot:          true,
		},
		{
			ResourceMetadata: k8s.ResourceMetadata{Name: "node-b", Age: 48 * time.Hour},
			Status:           "Ready",
			Pods:             3,
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// connected returns a model that has received a connect event and its data
func connected(t *testing.T, src *fakeSource, sw *fakeSwitcher) (Model, *k8s.Client) {
	t.Helper()
	m := NewModel(src, sw, nil, GetTheme("charm"), Options{Namespace: "default"})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})

	client := &k8s.Client{Selector: "prod", Host: "https://prod.example.com", ServerVersion: "v1.31.0", Context: "prod-admin"}
	m, cmd := update(t, m, clientEventMsg{event: k8s.ClientEvent{Generation: 1, Selector: "prod", Client: client}})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	m, _ = update(t, m, fetch(src, client, m.opts)())
	return m, client
}

func TestModel_Connecting(t *testing.T) {
	sw := newFakeSwitcher("prod")
	m := NewModel(&fakeSource{}, sw, nil, GetTheme("charm"), Options{})

	assert.Equal(t, "prod", m.connecting)
	assert.Nil(t, m.client)
	assert.Contains(t, m.View(), "Connecting to prod")
	assert.Contains(t, m.View(), "not connected")
}

func TestModel_ConnectAndFetch(t *testing.T) {
	src := &fakeSource{workloads: testWorkloads(), nodes: testNodes()}
	sw := newFakeSwitcher("prod")
	m, client := connected(t, src, sw)

	assert.Same(t, client, m.client)
	assert.Equal(t, "prod", m.selector)
	assert.Empty(t, m.connecting)
	assert.False(t, m.loading)
	assert.Equal(t, []string{"default"}, src.namespaces)
	require.Len(t, m.visibleWorkloads, 2)
	require.Len(t, m.visibleNodes, 2)

	view := m.View()
	assert.Contains(t, view, "ctx: prod (prod-admin)")
	assert.Contains(t, view, "Workloads (2)")
	assert.Contains(t, view, "Nodes (2)")
	assert.Contains(t, view, "web")
	assert.Contains(t, view, "Available")
	assert.Contains(t, view, "Connected to prod")
}

func TestModel_DiscardsDataForSupersededClient(t *testing.T) {
	src := &fakeSource{workloads: testWorkloads()}
	m, _ := connected(t, src, newFakeSwitcher("prod"))

	stale := dataMsg{client: &k8s.Client{Selector: "old"}, workloads: nil}
	m, cmd := update(t, m, stale)
	assert.Nil(t, cmd)
	assert.Len(t, m.visibleWorkloads, 2)
}

func TestModel_ConnectFailureKeepsClient(t *testing.T) {
	src := &fakeSource{workloads: testWorkloads()}
	sw := newFakeSwitcher("prod")
	m, client := connected(t, src, sw)

	sw.pending = "staging"
	m, cmd := update(t, m, clientEventMsg{event: k8s.ClientEvent{
		Generation: 2,
		Selector:   "staging",
		Err:        errors.New("connection refused"),
	}})
	require.NotNil(t, cmd)

	assert.Same(t, client, m.client)
	assert.Equal(t, "prod", m.selector)
	assert.Len(t, m.visibleWorkloads, 2)
	assert.Equal(t, MessageError, m.messageKind)
	assert.Contains(t, m.message, "Failed to connect to staging")
	assert.Contains(t, m.message, "still on prod")
}

func TestModel_SwitchClearsPreviousData(t *testing.T) {
	src := &fakeSource{workloads: testWorkloads()}
	sw := newFakeSwitcher("prod")
	m, _ := connected(t, src, sw)

	next := &k8s.Client{Selector: "staging", Host: "https://staging.example.com"}
	m, _ = update(t, m, clientEventMsg{event: k8s.ClientEvent{Generation: 2, Selector: "staging", Client: next}})
	assert.Same(t, next, m.client)
	assert.Empty(t, m.visibleWorkloads, "rows from the previous cluster must not be shown")
}

func TestModel_PartialFetchError(t *testing.T) {
	src := &fakeSource{workloads: testWorkloads(), nodesErr: errors.New("nodes is forbidden")}
	m, _ := connected(t, src, newFakeSwitcher("prod"))

	assert.Len(t, m.visibleWorkloads, 2)
	assert.Empty(t, m.visibleNodes)
	assert.Equal(t, MessageError, m.messageKind)
	assert.Contains(t, m.message, "nodes: nodes is forbidden")
}

func TestModel_Filter(t *testing.T) {
	m, _ := connected(t, &fakeSource{workloads: testWorkloads(), nodes: testNodes()}, newFakeSwitcher("prod"))

	m, _ = update(t, m, key("/"))
	assert.Equal(t, modeFilter, m.mode)
	for _, r := range "web" {
		m, _ = update(t, m, key(string(r)))
	}
	require.Len(t, m.visibleWorkloads, 1)
	assert.Equal(t, "web", m.visibleWorkloads[0].Name)

	m, _ = update(t, m, key("enter"))
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "web", m.filter.Value())

	m, _ = update(t, m, key("esc"))
	assert.Empty(t, m.filter.Value())
	assert.Len(t, m.visibleWorkloads, 2)
}

func TestModel_ContextPicker(t *testing.T) {
	sw := newFakeSwitcher("prod")
	src := &fakeSource{workloads: testWorkloads()}
	m, _ := connected(t, src, sw)
	m.selections = func() ([]Selection, error) {
		return []Selection{
			{Name: "default", Detail: "ambient kubeconfig"},
			{Name: "prod", Detail: "prod-admin"},
			{Name: "staging", Detail: "staging-admin"},
		}, nil
	}

	m, cmd := update(t, m, key("s"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, modePicker, m.mode)
	assert.Equal(t, 1, m.pickerTable.Cursor(), "cursor starts on the current selection")
	assert.Contains(t, m.View(), "staging-admin")

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("enter"))
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, []string{"staging"}, sw.selected)
	assert.Equal(t, "staging", m.connecting)
}

func TestModel_ContextPickerError(t *testing.T) {
	m, _ := connected(t, &fakeSource{}, newFakeSwitcher("prod"))
	m.selections = func() ([]Selection, error) { return nil, errors.New("registry is closed") }

	_, cmd := update(t, m, key("s"))
	m, _ = update(t, m, cmd())
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.message, "registry is closed")
}

func TestModel_Detail(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantTitle string
		wantBody  string
	}{
		{"yaml", "y", "YAML deployment/default/web", "kind: Deployment"},
		{"describe", "d", "Describe deployment/default/web", "Name: web"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := connected(t, &fakeSource{workloads: testWorkloads()}, newFakeSwitcher("prod"))

			m, cmd := update(t, m, key(tt.key))
			require.NotNil(t, cmd)
			m, _ = update(t, m, cmd())

			assert.Equal(t, modeDetail, m.mode)
			view := m.View()
			assert.Contains(t, view, tt.wantTitle)
			assert.Contains(t, view, tt.wantBody)

			m, _ = update(t, m, key("esc"))
			assert.Equal(t, modeList, m.mode)
		})
	}
}

func TestModel_DetailError(t *testing.T) {
	workloads := []k8s.Workload{{
		ResourceMetadata: k8s.ResourceMetadata{Namespace: "default", Name: "broken"},
		Kind:             status.KindJob,
	}}
	m, _ := connected(t, &fakeSource{workloads: workloads}, newFakeSwitcher("prod"))

	_, cmd := update(t, m, key("d"))
	m, _ = update(t, m, cmd())
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.message, "failed to describe job/default/broken")
}

func TestModel_NodesTab(t *testing.T) {
	m, _ := connected(t, &fakeSource{nodes: testNodes()}, newFakeSwitcher("prod"))

	m, _ = update(t, m, key("tab"))
	assert.Equal(t, tabNodes, m.tab)
	view := m.View()
	assert.Contains(t, view, "▲ node-a")
	assert.Contains(t, view, "85%")

	m, cmd := update(t, m, key("y"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "YAML node/node-a")

	m, _ = update(t, m, key("esc"))
	m, _ = update(t, m, key("tab"))
	assert.Equal(t, tabWorkloads, m.tab)
}

func TestModel_CopyReference(t *testing.T) {
	var copied string
	original := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = original })

	m, _ := connected(t, &fakeSource{workloads: testWorkloads()}, newFakeSwitcher("prod"))
	m, cmd := update(t, m, key("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, "Deployment/default/web", copied)
	assert.Equal(t, "Copied Deployment/default/web", m.message)

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	m, _ = update(t, m, key("c"))
	assert.Equal(t, MessageError, m.messageKind)
}

func TestModel_RefreshAndReconnect(t *testing.T) {
	sw := newFakeSwitcher("")
	m := NewModel(&fakeSource{}, sw, nil, GetTheme("charm"), Options{})

	m, _ = update(t, m, key("r"))
	assert.Equal(t, "Not connected", m.message)

	m, _ = connected(t, &fakeSource{}, sw)
	m, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	m, _ = update(t, m, key("R"))
	assert.Equal(t, 1, sw.reloads)
	assert.Equal(t, "prod", m.connecting)
}

func TestModel_MessageExpiry(t *testing.T) {
	m := NewModel(&fakeSource{}, newFakeSwitcher(""), nil, GetTheme("charm"), Options{})

	m.setMessage("first", MessageInfo)
	first := m.messageSeq
	m.setMessage("second", MessageInfo)

	m, _ = update(t, m, clearMessageMsg{seq: first})
	assert.Equal(t, "second", m.message, "an older timer must not clear a newer message")

	m, _ = update(t, m, clearMessageMsg{seq: m.messageSeq})
	assert.Empty(t, m.message)
}

func TestModel_EventsClosed(t *testing.T) {
	m := NewModel(&fakeSource{}, newFakeSwitcher(""), nil, GetTheme("charm"), Options{})
	_, cmd := update(t, m, clientEventMsg{closed: true})
	assert.Nil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(&fakeSource{}, newFakeSwitcher(""), nil, GetTheme("charm"), Options{})
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ForceQuitInAnyMode(t *testing.T) {
	m, _ := connected(t, &fakeSource{workloads: testWorkloads()}, newFakeSwitcher("prod"))
	m, _ = update(t, m, key("/"))
	require.Equal(t, modeFilter, m.mode)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
