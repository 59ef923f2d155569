// Package scraper holds the scrape error contract and the static registry
// the orchestration layer resolves provider integrations from. The concrete
// integrations live in subpackages and keep all network and parsing detail
// behind port.Scraper.
package scraper

import "fmt"

// ScrapeError wraps any failure inside a scraper with the provider handle
// and the operation that failed. It is fatal to the unit being processed
// and never to the whole job.
type ScrapeError struct {
	Handle string
	Op     string
	Err    error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scraper %q: %s: %v", e.Handle, e.Op, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewError builds a ScrapeError for the given provider handle and operation.
func NewError(handle, op string, err error) *ScrapeError {
	return &ScrapeError{Handle: handle, Op: op, Err: err}
}
