package k8s

import (
	"context"
	"sync"

	"github.com/renato0307/kboard/internal/logging"
)

// selectionQueueSize bounds pending selections waiting for the dispatcher
const selectionQueueSize = 32

// Connector builds a client for a selector
type Connector interface {
	Connect(ctx context.Context, selector string) (*Client, error)
}

// ClientEvent reports the outcome of the latest selection. Client is nil
// when Err is set.
type ClientEvent struct {
	Generation uint64
	Selector   string
	Client     *Client
	Err        error
}

type connectResult struct {
	generation uint64
	selector   string
	client     *Client
	err        error
}

// Reloader owns the active selection and its client. Selections are
// processed in order by a single dispatcher (Run). Each one gets a new
// generation and connects in the background; a result whose generation is
// no longer the latest is dropped, so the last selection always wins. A
// failed connect keeps the previous client current.
type Reloader struct {
	connector Connector
	requests  chan string
	results   chan connectResult
	events    chan ClientEvent
	done      chan struct{}

	mu         sync.RWMutex
	selector   string
	client     *Client
	pending    string
	generation uint64
}

// NewReloader returns a Reloader with no client. Call Run to start it.
func NewReloader(connector Connector) *Reloader {
	return &Reloader{
		connector: connector,
		requests:  make(chan string, selectionQueueSize),
		results:   make(chan connectResult),
		events:    make(chan ClientEvent, selectionQueueSize),
		done:      make(chan struct{}),
	}
}

// Select queues a switch to selector. It blocks only while the queue is
// full and Run is still going; after Run returns the selection is dropped.
func (r *Reloader) Select(selector string) {
	if selector == "" {
		selector = DefaultSelector
	}
	select {
	case r.requests <- selector:
	case <-r.done:
		logging.Debug("reloader stopped, dropping selection", "selector", selector)
	}
}

// Reload reconnects the current selection, or the pending one if nothing
// has connected yet
func (r *Reloader) Reload() {
	r.mu.RLock()
	selector := r.selector
	if selector == "" {
		selector = r.pending
	}
	r.mu.RUnlock()
	r.Select(selector)
}

// Current returns the selector and client of the last successful connect
func (r *Reloader) Current() (string, *Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selector, r.client
}

// Pending returns the most recent selection and its generation, which may
// still be connecting
func (r *Reloader) Pending() (string, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending, r.generation
}

// Events delivers one event per completed latest-generation connect. The
// channel is closed when Run returns.
func (r *Reloader) Events() <-chan ClientEvent {
	return r.events
}

// Run dispatches selections until ctx is cancelled
func (r *Reloader) Run(ctx context.Context) error {
	defer close(r.events)
	defer close(r.done)

	log := logging.Get().With("component", "reloader")
	cancelInFlight := func() {}
	defer func() { cancelInFlight() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case selector := <-r.requests:
			cancelInFlight()

			r.mu.Lock()
			r.generation++
			gen := r.generation
			r.pending = selector
			r.mu.Unlock()

			connectCtx, cancel := context.WithCancel(ctx)
			cancelInFlight = cancel

			log.Debug("selection changed", "selector", selector, "generation", gen)
			go r.connect(connectCtx, gen, selector)

		case res := <-r.results:
			r.mu.Lock()
			latest := r.generation
			if res.generation == latest && res.err == nil {
				r.selector = res.selector
				r.client = res.client
			}
			r.mu.Unlock()

			if res.generation != latest {
				log.Debug("discarding stale connect", "selector", res.selector,
					"generation", res.generation, "latest", latest)
				continue
			}
			if res.err != nil {
				log.Warn("connect failed, keeping previous client", "selector", res.selector, "error", res.err)
			}

			event := ClientEvent{
				Generation: res.generation,
				Selector:   res.selector,
				Client:     res.client,
				Err:        res.err,
			}
			select {
			case r.events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (r *Reloader) connect(ctx context.Context, gen uint64, selector string) {
	client, err := r.connector.Connect(ctx, selector)
	if err != nil {
		client = nil
	}
	select {
	case r.results <- connectResult{generation: gen, selector: selector, client: client, err: err}:
	case <-ctx.Done():
		// superseded or shutting down; Run is no longer waiting for this one
	}
}
