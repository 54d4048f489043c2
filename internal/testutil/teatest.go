// Package testutil runs Bubble Tea models inside a real program for tests
package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const pollInterval = 20 * time.Millisecond

// syncBuffer is written by the program's renderer and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestProgram wraps a running Bubble Tea program
type TestProgram struct {
	program *tea.Program
	output  *syncBuffer
	done    chan struct{}
	final   tea.Model
	err     error
	t       *testing.T
}

// NewTestProgram starts model with no terminal input and the given size.
// The program is killed when the test ends.
func NewTestProgram(t *testing.T, model tea.Model, width, height int) *TestProgram {
	t.Helper()

	output := &syncBuffer{}
	tp := &TestProgram{
		program: tea.NewProgram(model,
			tea.WithInput(nil),
			tea.WithOutput(output),
			tea.WithoutSignalHandler(),
		),
		output: output,
		done:   make(chan struct{}),
		t:      t,
	}

	go func() {
		defer close(tp.done)
		tp.final, tp.err = tp.program.Run()
	}()
	t.Cleanup(func() {
		tp.program.Kill()
		<-tp.done
	})

	tp.Send(tea.WindowSizeMsg{Width: width, Height: height})
	return tp
}

// Send delivers msg to the program
func (tp *TestProgram) Send(msg tea.Msg) {
	tp.program.Send(msg)
}

// Type sends s one rune at a time
func (tp *TestProgram) Type(s string) {
	for _, r := range s {
		tp.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// SendKey sends a special key press
func (tp *TestProgram) SendKey(key tea.KeyType) {
	tp.Send(tea.KeyMsg{Type: key})
}

// Output returns everything rendered so far
func (tp *TestProgram) Output() string {
	return tp.output.String()
}

// WaitForOutput polls until needle has been rendered or timeout passes
func (tp *TestProgram) WaitForOutput(needle string, timeout time.Duration) bool {
	tp.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(tp.Output(), needle) {
			return true
		}
		time.Sleep(pollInterval)
	}
	return false
}

// AssertEventually fails the test when needle is not rendered within timeout
func (tp *TestProgram) AssertEventually(needle string, timeout time.Duration) {
	tp.t.Helper()
	if !tp.WaitForOutput(needle, timeout) {
		tp.t.Errorf("output does not contain %q\nGot:\n%s", needle, tp.Output())
	}
}

// WaitFinished blocks until the program exits and returns its final model
func (tp *TestProgram) WaitFinished(timeout time.Duration) (tea.Model, bool) {
	tp.t.Helper()
	select {
	case <-tp.done:
		return tp.final, tp.err == nil
	case <-time.After(timeout):
		return nil, false
	}
}
