package plugin

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tucan/internal/domain"
	"tucan/internal/mailbox"
)

// HostOptions configures a Host
type HostOptions struct {
	// EventCapacity bounds each plugin's event mailbox
	EventCapacity int
	// Defaults apply to every worker; zero fields in per-plugin options are taken from here
	Defaults WorkerOptions
}

// Host runs plugin workers. Each plugin gets its own bounded event mailbox and
// a forwarder that moves its messages, in order, into one merged stream.
type Host struct {
	ctx    context.Context
	group  *errgroup.Group
	out    chan domain.ControllerMessage
	opts   HostOptions
	logger *log.Logger

	mu      sync.Mutex
	workers []*Worker
}

// NewHost creates a host whose workers live until ctx is done
func NewHost(ctx context.Context, opts HostOptions) *Host {
	if opts.EventCapacity <= 0 {
		opts.EventCapacity = mailbox.DefaultCapacity
	}
	if opts.Defaults.Logger == nil {
		opts.Defaults.Logger = log.Default()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	return &Host{
		ctx:    groupCtx,
		group:  group,
		out:    make(chan domain.ControllerMessage, opts.EventCapacity),
		opts:   opts,
		logger: opts.Defaults.Logger.With("component", "host"),
	}
}

// Messages is the merged stream of every plugin's messages
func (h *Host) Messages() <-chan domain.ControllerMessage {
	return h.out
}

// Start spawns a worker for source. Zero fields in opts fall back to the host defaults.
func (h *Host) Start(source Source, opts WorkerOptions) *Worker {
	opts = h.merge(opts)
	id := source.Info().ID

	events := mailbox.New[domain.ControllerMessage]("events:"+id, h.opts.EventCapacity)
	worker := NewWorker(source, events, opts)

	h.mu.Lock()
	h.workers = append(h.workers, worker)
	h.mu.Unlock()

	h.group.Go(func() error {
		return h.forward(events)
	})
	h.group.Go(func() error {
		defer h.closeSource(source)
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("Plugin panicked, its section stops updating",
					"plugin", id, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			}
		}()
		return worker.Run(h.ctx)
	})

	h.logger.Debug("Plugin started", "plugin", id)
	return worker
}

// Workers returns the started workers
func (h *Host) Workers() []*Worker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Worker(nil), h.workers...)
}

// Wait blocks until every worker and forwarder has returned
func (h *Host) Wait() error {
	return h.group.Wait()
}

// forward moves messages from one plugin's mailbox to the merged stream,
// preserving that plugin's order
func (h *Host) forward(events *mailbox.Mailbox[domain.ControllerMessage]) error {
	for {
		select {
		case <-h.ctx.Done():
			return nil
		case msg, ok := <-events.C():
			if !ok {
				return nil
			}
			select {
			case h.out <- msg:
			case <-h.ctx.Done():
				return nil
			}
		}
	}
}

func (h *Host) merge(opts WorkerOptions) WorkerOptions {
	d := h.opts.Defaults
	if opts.PollInterval <= 0 {
		opts.PollInterval = d.PollInterval
	}
	if opts.RequestCapacity <= 0 {
		opts.RequestCapacity = d.RequestCapacity
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = d.MaxResults
	}
	if opts.Matcher == nil {
		opts.Matcher = d.Matcher
	}
	if opts.Logger == nil {
		opts.Logger = d.Logger
	}
	if opts.Fatal == nil {
		opts.Fatal = d.Fatal
	}
	return opts
}

func (h *Host) closeSource(source Source) {
	closer, ok := source.(Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		h.logger.Warn("Failed to close plugin source", "plugin", source.Info().ID, "err", err)
	}
}
