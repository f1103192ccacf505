package clock

import (
	"context"
	"time"

	"tucan/internal/domain"
)

const (
	ID              = "clock"
	DefaultPriority = 10

	TimeEntryID = "time-entry"
	DateEntryID = "date"

	TimeLayout = "15:04:05"
	DateLayout = "Monday, _2. January 2006"
)

// Source shows the current time and date
type Source struct {
	priority uint
	now      func() time.Time
}

// Option configures a clock source
type Option func(*Source)

// WithNow replaces the time source
func WithNow(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// WithPriority overrides the default priority
func WithPriority(priority uint) Option {
	return func(s *Source) { s.priority = priority }
}

// New creates a clock source
func New(opts ...Option) *Source {
	s := &Source{priority: DefaultPriority, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Info() domain.PluginInfo {
	return domain.PluginInfo{ID: ID, Priority: s.priority, Title: "󰅐 Clock"}
}

func (s *Source) Entries(ctx context.Context) ([]domain.Entry, error) {
	now := s.now()
	return []domain.Entry{
		{ID: TimeEntryID, Title: now.Format(TimeLayout), Meta: "Clock Time"},
		{ID: DateEntryID, Title: now.Format(DateLayout), Meta: "Clock Date"},
	}, nil
}

// Activate does nothing, the clock is informational
func (s *Source) Activate(ctx context.Context, entry domain.Entry) (bool, error) {
	return false, nil
}
