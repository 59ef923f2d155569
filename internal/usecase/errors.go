package usecase

import "fmt"

// ConfigurationError marks a unit that references a platform handle no
// scraper or platform row exists for. Fatal to that unit only.
type ConfigurationError struct {
	Handle string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown platform handle %q", e.Handle)
}
