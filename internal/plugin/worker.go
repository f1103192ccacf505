package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"tucan/internal/domain"
	"tucan/internal/mailbox"
	"tucan/internal/search"
)

// DefaultPollInterval is how long a worker waits for a request before refreshing
const DefaultPollInterval = time.Second

// ErrRegistration is returned when a worker cannot announce itself
var ErrRegistration = errors.New("plugin registration failed")

// State is the lifecycle state of a worker
type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateServing
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateServing:
		return "serving"
	default:
		return "unregistered"
	}
}

// WorkerOptions configures a worker
type WorkerOptions struct {
	PollInterval    time.Duration
	RequestCapacity int
	MaxResults      int // 0 means unlimited
	Matcher         search.Matcher
	Logger          *log.Logger
	// Fatal is called when registration fails. Defaults to logging and exiting the process.
	Fatal func(err error)
}

// Worker drives one plugin: it registers once, then serves search, activate
// and timeout requests from its own mailbox.
type Worker struct {
	source   Source
	info     domain.PluginInfo
	events   domain.MessageSender
	requests *mailbox.Mailbox[domain.PluginRequest]

	pollInterval time.Duration
	maxResults   int
	matcher      search.Matcher
	logger       *log.Logger
	fatal        func(err error)

	state     atomic.Int32
	entries   []domain.Entry
	lastQuery string
}

// NewWorker creates a worker for source that reports to events
func NewWorker(source Source, events domain.MessageSender, opts WorkerOptions) *Worker {
	info := source.Info()

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Matcher == nil {
		opts.Matcher = search.Filter
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	logger := opts.Logger.With("plugin", info.ID)
	if opts.Fatal == nil {
		opts.Fatal = func(err error) {
			logger.Error("Plugin cannot serve, terminating", "err", err)
			os.Exit(1)
		}
	}

	return &Worker{
		source:       source,
		info:         info,
		events:       events,
		requests:     mailbox.New[domain.PluginRequest]("requests:"+info.ID, opts.RequestCapacity),
		pollInterval: opts.PollInterval,
		maxResults:   opts.MaxResults,
		matcher:      opts.Matcher,
		logger:       logger,
		fatal:        opts.Fatal,
	}
}

// ID returns the plugin id
func (w *Worker) ID() string {
	return w.info.ID
}

// State returns the lifecycle state
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run registers the plugin and serves requests until ctx is done or the
// request mailbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.register(ctx); err != nil {
		w.fatal(err)
		return err
	}

	w.state.Store(int32(StateServing))
	for {
		req, err := w.requests.ReceiveTimeout(ctx, w.pollInterval, domain.TimeoutRequest{})
		if err != nil {
			if errors.Is(err, mailbox.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := w.handle(ctx, req); err != nil {
			w.logger.Warn("Request failed", "request", req.Type(), "err", err)
		}
	}
}

// Stop closes the request mailbox so Run returns after draining it
func (w *Worker) Stop() {
	w.requests.Close()
}

func (w *Worker) register(ctx context.Context) error {
	entries, err := w.source.Entries(ctx)
	if err != nil {
		w.logger.Warn("Failed to compute initial entries", "err", err)
		entries = nil
	}
	w.entries = entries

	msg := domain.RegisterPluginMessage{
		Plugin:   w.info,
		Entries:  append([]domain.Entry(nil), w.limit(entries)...),
		Requests: w.requests,
	}
	if err := w.events.TrySend(msg); err != nil {
		return fmt.Errorf("%w: send RegisterPlugin for %q: %w", ErrRegistration, w.info.ID, err)
	}

	w.state.Store(int32(StateRegistered))
	w.logger.Debug("Plugin registered", "entries", len(entries))
	return nil
}

func (w *Worker) handle(ctx context.Context, req domain.PluginRequest) error {
	switch r := req.(type) {
	case domain.SearchRequest:
		return w.search(r.Query)

	case domain.TimeoutRequest:
		entries, err := w.source.Entries(ctx)
		if err != nil {
			// keep serving the previous set
			w.logger.Warn("Failed to refresh entries", "err", err)
		} else {
			w.entries = entries
		}
		return w.search(w.lastQuery)

	case domain.ActivateRequest:
		return w.activate(ctx, r.EntryID)

	default:
		return fmt.Errorf("unknown request type %q", req.Type())
	}
}

// search stores the query and re-emits the filtered entry set
func (w *Worker) search(query string) error {
	w.lastQuery = query

	filtered := w.limit(w.matcher(w.entries, query))

	if err := w.events.TrySend(domain.ClearMessage{PluginID: w.info.ID}); err != nil {
		return fmt.Errorf("send Clear while searching for %q: %w", query, err)
	}

	for _, entry := range filtered {
		if err := w.events.TrySend(domain.AppendEntryMessage{PluginID: w.info.ID, Entry: entry}); err != nil {
			return fmt.Errorf("send AppendEntry %q while searching for %q: %w", entry.ID, query, err)
		}
	}
	return nil
}

func (w *Worker) activate(ctx context.Context, entryID string) error {
	var (
		entry domain.Entry
		found bool
	)
	for _, e := range w.entries {
		if e.ID == entryID {
			entry, found = e, true
			break
		}
	}
	if !found {
		return nil
	}

	exit, err := w.source.Activate(ctx, entry)
	if err != nil {
		return fmt.Errorf("activate entry %q: %w", entryID, err)
	}
	if !exit {
		return nil
	}

	if err := w.events.TrySend(domain.ExitMessage{PluginID: w.info.ID}); err != nil {
		return fmt.Errorf("send Exit after activating entry %q: %w", entryID, err)
	}
	return nil
}

func (w *Worker) limit(entries []domain.Entry) []domain.Entry {
	if w.maxResults > 0 && len(entries) > w.maxResults {
		return entries[:w.maxResults]
	}
	return entries
}
