package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks provider secrets in log values.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name  string
	regex *regexp.Regexp
}

// Secret pattern names.
const (
	PatternAnthropicKey  = "anthropic_key"
	PatternOpenRouterKey = "openrouter_key"
	PatternOpenAIKey     = "openai_key"
	PatternTavilyKey     = "tavily_key"
	PatternReplicateKey  = "replicate_token"
	PatternBearerToken   = "bearer_token"
)

// NewRedactor creates a Redactor with the built-in secret patterns. The order
// matters: more specific prefixes are matched first.
func NewRedactor() *Redactor {
	defs := []struct {
		name  string
		regex string
	}{
		{PatternAnthropicKey, `sk-ant-[A-Za-z0-9_\-]{4,}`},
		{PatternOpenRouterKey, `sk-or-[A-Za-z0-9_\-]{4,}`},
		{PatternOpenAIKey, `sk-[A-Za-z0-9_\-]{8,}`},
		{PatternTavilyKey, `tvly-[A-Za-z0-9_\-]{4,}`},
		{PatternReplicateKey, `r8_[A-Za-z0-9]{8,}`},
		{PatternBearerToken, `(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`},
	}

	r := &Redactor{}
	for _, d := range defs {
		r.patterns = append(r.patterns, &redactPattern{name: d.name, regex: regexp.MustCompile(d.regex)})
	}
	return r
}

// RedactString masks every secret found in value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}

	for _, p := range r.patterns {
		if p.name == PatternBearerToken {
			value = p.regex.ReplaceAllString(value, "Bearer ***")
			continue
		}
		value = p.regex.ReplaceAllStringFunc(value, RedactAPIKey)
	}
	return value
}

// RedactAttr masks string values, sensitive keys and nested groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if r == nil {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactAPIKey(a.Value.String()))
		}
		return slog.String(a.Key, r.RedactString(a.Value.String()))

	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// isSensitiveKey reports whether key names a credential.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range []string{"api_key", "apikey", "token", "secret", "authorization", "password"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAPIKey keeps the first four characters of a key.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
