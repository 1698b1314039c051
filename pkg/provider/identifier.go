// Package provider parses compact model identifiers and routes load
// requests to a closed set of compiled backend adapters. Dynamic import or
// installation of backends by name is deliberately unsupported.
package provider

import (
	"regexp"
	"strings"

	"github.com/Anand0295/storyforge/pkg/security"
)

// DefaultProvider receives identifiers that carry no provider prefix.
const DefaultProvider = "ollama"

// defaultModelName is used when a scheme-form identifier names only a host.
const defaultModelName = "default"

// Identifier is a parsed, validated model identifier.
type Identifier struct {
	Provider string
	Host     string
	Name     string
}

// String reconstructs the compact form.
func (id Identifier) String() string {
	if id.Host != "" {
		return id.Provider + "://" + id.Host + ":" + id.Name
	}
	if id.Provider != "" {
		return id.Provider + ":" + id.Name
	}
	return id.Name
}

// ParseIdentifier splits raw into provider, optional host, and model name.
//
// Precedence, in order:
//  1. "provider://host:name": split at "://" first, then at the LAST ':'
//     of the remainder; a remainder without ':' is a host with name
//     "default".
//  2. "provider:name": split at the FIRST ':', but only when the prefix is
//     a member of the provider set; "llama3.2:latest" stays one model name.
//  3. bare name: the default local backend.
//
// Every part is validated before the identifier is returned; no load is
// attempted for a malformed identifier.
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, &security.ValidationError{Class: "model identifier", Reason: "empty"}
	}
	if len(raw) > security.MaxModelNameLength {
		return Identifier{}, &security.ValidationError{Class: "model identifier", Reason: "too long"}
	}

	var id Identifier
	switch {
	case strings.Contains(raw, "://"):
		parts := strings.SplitN(raw, "://", 2)
		id.Provider = parts[0]
		rest := parts[1]
		if idx := strings.LastIndex(rest, ":"); idx >= 0 {
			id.Host = rest[:idx]
			id.Name = rest[idx+1:]
		} else {
			id.Host = rest
			id.Name = defaultModelName
		}
	case strings.Contains(raw, ":"):
		parts := strings.SplitN(raw, ":", 2)
		if security.CheckProvider(parts[0]) == nil {
			id.Provider = parts[0]
			id.Name = parts[1]
		} else {
			id.Provider = DefaultProvider
			id.Name = raw
		}
	default:
		id.Provider = DefaultProvider
		id.Name = raw
	}

	id.Provider = strings.ToLower(id.Provider)
	if err := security.CheckProvider(id.Provider); err != nil {
		return Identifier{}, err
	}
	if id.Host != "" {
		if err := security.CheckRule(id.Host, hostRule); err != nil {
			return Identifier{}, err
		}
	}
	if err := security.CheckModelName(id.Name); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// hostRule reuses the model-name character class, which covers hostnames
// and host:port forms.
var hostRule = security.Rule{
	Class:     "host",
	Pattern:   regexp.MustCompile(`^[A-Za-z0-9:._-]+$`),
	MaxLength: security.MaxModelNameLength,
}
