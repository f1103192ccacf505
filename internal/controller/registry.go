package controller

import (
	"sort"

	"tucan/internal/domain"
)

// Plugin is the controller-side record of a registered plugin
type Plugin struct {
	domain.PluginInfo
	Entries []domain.Entry

	requests domain.RequestSender
	seq      int // registration order, breaks priority ties
}

// Registry holds plugin records and their routing handles keyed by plugin id
type Registry struct {
	plugins map[string]*Plugin
	ordered []*Plugin
	nextSeq int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]*Plugin),
	}
}

// Register inserts a plugin or replaces an existing record with the same id.
// A replaced record keeps its registration slot. Returns true on replace.
func (r *Registry) Register(info domain.PluginInfo, entries []domain.Entry, requests domain.RequestSender) bool {
	if existing, ok := r.plugins[info.ID]; ok {
		existing.PluginInfo = info
		existing.Entries = append([]domain.Entry(nil), entries...)
		existing.requests = requests
		r.reorder()
		return true
	}

	p := &Plugin{
		PluginInfo: info,
		Entries:    append([]domain.Entry(nil), entries...),
		requests:   requests,
		seq:        r.nextSeq,
	}
	r.nextSeq++
	r.plugins[info.ID] = p
	r.ordered = append(r.ordered, p)
	r.reorder()
	return false
}

// Get returns the record for a plugin id
func (r *Registry) Get(id string) (*Plugin, bool) {
	p, ok := r.plugins[id]
	return p, ok
}

// Clear empties a plugin's entries. Returns false for unknown ids.
func (r *Registry) Clear(id string) bool {
	p, ok := r.plugins[id]
	if !ok {
		return false
	}
	p.Entries = nil
	return true
}

// Append adds an entry to a plugin's entries. Returns false for unknown ids.
func (r *Registry) Append(id string, entry domain.Entry) bool {
	p, ok := r.plugins[id]
	if !ok {
		return false
	}
	p.Entries = append(p.Entries, entry)
	return true
}

// Ordered returns plugins by ascending priority, ties by registration order
func (r *Registry) Ordered() []*Plugin {
	return r.ordered
}

// Len returns the number of registered plugins
func (r *Registry) Len() int {
	return len(r.ordered)
}

// Owner returns the first plugin, in display order, whose entries contain entryID
func (r *Registry) Owner(entryID string) (*Plugin, bool) {
	for _, p := range r.ordered {
		for _, e := range p.Entries {
			if e.ID == entryID {
				return p, true
			}
		}
	}
	return nil, false
}

// TotalEntries returns the size of the aggregate list
func (r *Registry) TotalEntries() int {
	total := 0
	for _, p := range r.ordered {
		total += len(p.Entries)
	}
	return total
}

func (r *Registry) reorder() {
	sort.SliceStable(r.ordered, func(i, j int) bool {
		if r.ordered[i].Priority != r.ordered[j].Priority {
			return r.ordered[i].Priority < r.ordered[j].Priority
		}
		return r.ordered[i].seq < r.ordered[j].seq
	})
}
