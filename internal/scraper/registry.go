package scraper

import (
	"fmt"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// Registry maps platform handles to their scraper implementations. It is
// built once at startup from the fixed set of provider integrations and is
// read-only afterwards.
type Registry struct {
	byHandle map[string]port.Scraper
	ordered  []port.Scraper
}

// NewRegistry indexes the given scrapers by handle. A duplicate or empty
// handle is a wiring bug and fails startup.
func NewRegistry(scrapers ...port.Scraper) (*Registry, error) {
	r := &Registry{byHandle: make(map[string]port.Scraper, len(scrapers))}
	for _, s := range scrapers {
		handle := s.Handle()
		if handle == "" {
			return nil, fmt.Errorf("scraper %T has an empty handle", s)
		}
		if _, exists := r.byHandle[handle]; exists {
			return nil, fmt.Errorf("duplicate scraper handle %q", handle)
		}
		r.byHandle[handle] = s
		r.ordered = append(r.ordered, s)
	}
	return r, nil
}

// All returns every registered scraper in registration order.
func (r *Registry) All() []port.Scraper {
	out := make([]port.Scraper, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Lookup resolves a scraper by platform handle.
func (r *Registry) Lookup(handle string) (port.Scraper, bool) {
	s, ok := r.byHandle[handle]
	return s, ok
}

var _ port.ScraperRegistry = (*Registry)(nil)
