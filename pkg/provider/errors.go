package provider

import "fmt"

// UnsupportedProviderError reports a syntactically valid identifier naming
// a provider with no compiled adapter registered.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("provider: no adapter registered for %q", e.Provider)
}

// LoadError wraps a backend failure during the Loading state.
type LoadError struct {
	Identifier string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("provider: load %s: %v", e.Identifier, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
