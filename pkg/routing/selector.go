// Package routing decides which upstream provider serves a request.
//
// Selection is a pure function of the configured credentials: the fixed
// priority is anthropic, then openai, then openrouter. The same order is the
// fallback chain used when a provider fails before streaming starts.
package routing

import (
	"slices"

	"hohl-rocks/relay/pkg/providers"
)

// Priority is the fixed provider order.
var Priority = []providers.Name{
	providers.Anthropic,
	providers.OpenAI,
	providers.OpenRouter,
}

// Credentials is an immutable snapshot of the configured providers. Build it
// once at startup and pass it explicitly.
type Credentials struct {
	byName map[providers.Name]providers.Credential
}

// NewCredentials keeps the credentials that carry an API key. When the same
// provider appears twice, the first entry wins.
func NewCredentials(creds ...providers.Credential) Credentials {
	byName := make(map[providers.Name]providers.Credential, len(creds))
	for _, c := range creds {
		if !c.Configured() || !slices.Contains(Priority, c.Provider) {
			continue
		}
		if _, dup := byName[c.Provider]; dup {
			continue
		}
		byName[c.Provider] = c.WithDefaults()
	}
	return Credentials{byName: byName}
}

// Get returns the credential for name.
func (c Credentials) Get(name providers.Name) (providers.Credential, bool) {
	cred, ok := c.byName[name]
	return cred, ok
}

// Has reports whether name is configured.
func (c Credentials) Has(name providers.Name) bool {
	_, ok := c.byName[name]
	return ok
}

// Len returns the number of configured providers.
func (c Credentials) Len() int {
	return len(c.byName)
}

// List returns the configured credentials in priority order.
func (c Credentials) List() []providers.Credential {
	out := make([]providers.Credential, 0, len(c.byName))
	for _, name := range Chain(c) {
		out = append(out, c.byName[name])
	}
	return out
}

// SelectProvider returns the highest priority configured provider, or
// providers.None.
func SelectProvider(creds Credentials) providers.Name {
	for _, name := range Priority {
		if creds.Has(name) {
			return name
		}
	}
	return providers.None
}

// Chain returns every configured provider in priority order. It is empty when
// nothing is configured.
func Chain(creds Credentials) []providers.Name {
	chain := make([]providers.Name, 0, len(Priority))
	for _, name := range Priority {
		if creds.Has(name) {
			chain = append(chain, name)
		}
	}
	return chain
}

// ActiveModel returns the model of the selected provider, or "" when nothing
// is configured.
func ActiveModel(creds Credentials) string {
	cred, ok := creds.Get(SelectProvider(creds))
	if !ok {
		return ""
	}
	return cred.Model
}
