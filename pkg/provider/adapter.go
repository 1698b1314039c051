package provider

import "context"

// Client is the opaque handle a successful load yields. Implementations
// are provider-specific; callers only ever route through the registry.
type Client interface {
	Provider() string
	ModelName() string
}

// Adapter is one compiled backend. Load performs the provider's own
// verify-or-fetch sequence and must be safe to call again after a failure:
// a transient backend error never blacklists a valid identifier.
type Adapter interface {
	Name() string
	Load(ctx context.Context, id Identifier) (Client, error)
}
