package controller

import (
	"errors"

	"github.com/charmbracelet/log"

	"tucan/internal/domain"
	"tucan/internal/mailbox"
)

// Row is one line of the aggregate list
type Row struct {
	Index    int // position in the aggregate list
	PluginID string
	Entry    domain.Entry
}

// Section is one plugin's slice of the aggregate list, used for rendering
type Section struct {
	Plugin domain.PluginInfo
	Rows   []Row
}

// Controller owns the plugin registry, fans user input out to plugins and
// tracks the selection over the merged list. It is not safe for concurrent
// use: a single event loop goroutine owns it.
type Controller struct {
	registry *Registry
	logger   *log.Logger

	query         string
	selectedIndex int
	exitRequested bool
}

// New creates a controller
func New(logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		registry: NewRegistry(),
		logger:   logger.With("component", "controller"),
	}
}

// Handle applies one plugin message to the registry. It returns true when the
// message asks the application to exit.
func (c *Controller) Handle(msg domain.ControllerMessage) bool {
	switch m := msg.(type) {
	case domain.RegisterPluginMessage:
		if replaced := c.registry.Register(m.Plugin, m.Entries, m.Requests); replaced {
			c.logger.Warn("Duplicate plugin registration, replacing record", "plugin", m.Plugin.ID)
		} else {
			c.logger.Info("Plugin registered", "plugin", m.Plugin.ID, "priority", m.Plugin.Priority, "entries", len(m.Entries))
		}

	case domain.ClearMessage:
		if !c.registry.Clear(m.PluginID) {
			c.logger.Warn("Clear for unknown plugin dropped", "plugin", m.PluginID)
		}

	case domain.AppendEntryMessage:
		if !c.registry.Append(m.PluginID, m.Entry) {
			c.logger.Warn("AppendEntry for unknown plugin dropped", "plugin", m.PluginID, "entry", m.Entry.ID)
		}

	case domain.ExitMessage:
		c.logger.Info("Exit requested", "plugin", m.PluginID)
		c.exitRequested = true
		return true

	default:
		c.logger.Warn("Unknown controller message", "type", msg.Type())
	}

	c.clampSelection()
	return false
}

// Search records the query and forwards it to every registered plugin.
// Sends never block; a full or closed mailbox is logged and skipped.
// Returns the number of plugins the request was delivered to.
func (c *Controller) Search(query string) int {
	c.query = query

	delivered := 0
	for _, p := range c.registry.Ordered() {
		if p.requests == nil {
			continue
		}
		if err := p.requests.TrySend(domain.SearchRequest{Query: query}); err != nil {
			c.logSendFailure(err, "Failed to forward search", "plugin", p.ID, "query", query)
			continue
		}
		delivered++
	}
	return delivered
}

// MoveUp selects the previous row, wrapping to the last one
func (c *Controller) MoveUp() {
	n := c.registry.TotalEntries()
	if n == 0 {
		c.selectedIndex = 0
		return
	}
	c.selectedIndex = (c.selectedIndex - 1 + n) % n
}

// MoveDown selects the next row, wrapping to the first one
func (c *Controller) MoveDown() {
	n := c.registry.TotalEntries()
	if n == 0 {
		c.selectedIndex = 0
		return
	}
	c.selectedIndex = (c.selectedIndex + 1) % n
}

// ActivateSelected sends an activation request to the plugin owning the
// selected row. Returns false when nothing was sent.
func (c *Controller) ActivateSelected() bool {
	row, ok := c.Selected()
	if !ok {
		return false
	}
	p, ok := c.registry.Get(row.PluginID)
	if !ok {
		return false
	}
	return c.sendActivate(p, row.Entry.ID)
}

// ActivateEntry sends an activation request for entryID to the plugin that
// currently lists it. Unknown ids are ignored.
func (c *Controller) ActivateEntry(entryID string) bool {
	p, ok := c.registry.Owner(entryID)
	if !ok {
		c.logger.Debug("Activation for unknown entry ignored", "entry", entryID)
		return false
	}
	return c.sendActivate(p, entryID)
}

func (c *Controller) sendActivate(p *Plugin, entryID string) bool {
	if p.requests == nil {
		return false
	}
	if err := p.requests.TrySend(domain.ActivateRequest{EntryID: entryID}); err != nil {
		c.logSendFailure(err, "Failed to forward activation", "plugin", p.ID, "entry", entryID)
		return false
	}
	return true
}

func (c *Controller) logSendFailure(err error, msg string, keyvals ...interface{}) {
	keyvals = append(keyvals, "err", err)
	if errors.Is(err, mailbox.ErrFull) {
		// a dropped request only means stale results until the next timeout
		c.logger.Debug(msg, keyvals...)
		return
	}
	c.logger.Warn(msg, keyvals...)
}

// Rows returns the aggregate list
func (c *Controller) Rows() []Row {
	rows := make([]Row, 0, c.registry.TotalEntries())
	for _, p := range c.registry.Ordered() {
		for _, e := range p.Entries {
			rows = append(rows, Row{Index: len(rows), PluginID: p.ID, Entry: e})
		}
	}
	return rows
}

// Sections returns the aggregate list grouped by plugin, in display order.
// Plugins without entries are omitted.
func (c *Controller) Sections() []Section {
	var sections []Section
	index := 0
	for _, p := range c.registry.Ordered() {
		if len(p.Entries) == 0 {
			continue
		}
		section := Section{Plugin: p.PluginInfo, Rows: make([]Row, 0, len(p.Entries))}
		for _, e := range p.Entries {
			section.Rows = append(section.Rows, Row{Index: index, PluginID: p.ID, Entry: e})
			index++
		}
		sections = append(sections, section)
	}
	return sections
}

// Selected returns the selected row; ok is false when the list is empty
func (c *Controller) Selected() (Row, bool) {
	index := c.selectedIndex
	for _, p := range c.registry.Ordered() {
		if index < len(p.Entries) {
			return Row{Index: c.selectedIndex, PluginID: p.ID, Entry: p.Entries[index]}, true
		}
		index -= len(p.Entries)
	}
	return Row{}, false
}

// SelectedIndex returns the active index into the aggregate list
func (c *Controller) SelectedIndex() int {
	return c.selectedIndex
}

// Query returns the last query forwarded to plugins
func (c *Controller) Query() string {
	return c.query
}

// ExitRequested reports whether a plugin asked the application to exit
func (c *Controller) ExitRequested() bool {
	return c.exitRequested
}

// Plugins returns registered plugins in display order
func (c *Controller) Plugins() []domain.PluginInfo {
	infos := make([]domain.PluginInfo, 0, c.registry.Len())
	for _, p := range c.registry.Ordered() {
		infos = append(infos, p.PluginInfo)
	}
	return infos
}

// Len returns the size of the aggregate list
func (c *Controller) Len() int {
	return c.registry.TotalEntries()
}

func (c *Controller) clampSelection() {
	n := c.registry.TotalEntries()
	switch {
	case n == 0:
		c.selectedIndex = 0
	case c.selectedIndex >= n:
		c.selectedIndex = n - 1
	case c.selectedIndex < 0:
		c.selectedIndex = 0
	}
}
