package providers

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request defaults.
const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 700

	// DefaultUserText is sent when the caller supplied no user text at all.
	DefaultUserText = "Los geht's."
)

// GenerationRequest is the provider-agnostic input to one generation call.
// It is transformed into a vendor wire body by an Adapter.
type GenerationRequest struct {
	// System is the system instruction. Adapters decide where it goes on the wire.
	System string

	// Messages holds the ordered conversation. After Normalize it contains
	// only user and assistant turns.
	Messages []Message

	// Temperature is the sampling temperature. Nil means unset; an explicit
	// zero is sent as is.
	// Default: 0.7
	Temperature *float64

	// MaxOutputTokens caps the completion length.
	// Default: 700
	MaxOutputTokens int
}

// NewGenerationRequest builds a request from a system instruction, the latest
// user text and an optional prior conversation. An empty user text is replaced
// with DefaultUserText so the request is never without a user turn.
func NewGenerationRequest(system, user string, history []Message) *GenerationRequest {
	if strings.TrimSpace(user) == "" {
		user = DefaultUserText
	}

	messages := make([]Message, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, Message{Role: RoleUser, Content: user})

	req := &GenerationRequest{
		System:   system,
		Messages: messages,
	}
	req.Normalize()
	return req
}

// Normalize applies defaults and hoists system-role messages into System so
// that Messages only carries user and assistant turns.
func (r *GenerationRequest) Normalize() {
	if r.Temperature == nil {
		r.Temperature = Float64(DefaultTemperature)
	}
	if r.MaxOutputTokens <= 0 {
		r.MaxOutputTokens = DefaultMaxOutputTokens
	}

	var system []string
	if strings.TrimSpace(r.System) != "" {
		system = append(system, r.System)
	}

	turns := r.Messages[:0:0]
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			if strings.TrimSpace(m.Content) != "" {
				system = append(system, m.Content)
			}
			continue
		}
		turns = append(turns, m)
	}

	r.System = strings.Join(system, "\n\n")
	r.Messages = turns
}

// Normalized returns a normalized copy of r. The receiver and its message
// slice are left untouched.
func (r *GenerationRequest) Normalized() *GenerationRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.Messages = slices.Clone(r.Messages)
	if r.Temperature != nil {
		out.Temperature = Float64(*r.Temperature)
	}
	out.Normalize()
	return &out
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Validate checks that the request can be sent to any provider.
func (r *GenerationRequest) Validate() error {
	if r == nil {
		return &ValidationError{Field: "request", Message: "request is nil"}
	}

	hasUser := false
	for i, m := range r.Messages {
		if !m.Role.Valid() {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("unknown role %q", m.Role),
			}
		}
		if m.Role == RoleUser {
			hasUser = true
		}
	}
	if !hasUser {
		return &ValidationError{Field: "messages", Message: "at least one user message is required"}
	}

	if t := r.Temperature; t != nil && (*t < 0 || *t > 2) {
		return &ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}
	if r.MaxOutputTokens < 0 {
		return &ValidationError{Field: "max_output_tokens", Message: "must not be negative"}
	}

	return nil
}

// Name identifies an upstream LLM vendor.
type Name string

// Known providers. None means no provider is available.
const (
	None       Name = ""
	Anthropic  Name = "anthropic"
	OpenAI     Name = "openai"
	OpenRouter Name = "openrouter"
)

// String returns the provider name, or "none".
func (n Name) String() string {
	if n == None {
		return "none"
	}
	return string(n)
}

// Vendor defaults applied when a credential leaves a field empty.
const (
	DefaultAnthropicModel  = "claude-3-5-sonnet-20241022"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenRouterModel = "openai/gpt-4o-mini"

	DefaultAnthropicBaseURL  = "https://api.anthropic.com"
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Credential is the configuration of one provider. It is read once at startup
// and never changes afterwards.
type Credential struct {
	Provider Name
	APIKey   string
	Model    string
	BaseURL  string
}

// Configured reports whether the credential carries an API key.
func (c Credential) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// WithDefaults fills the model and base URL from the vendor defaults.
func (c Credential) WithDefaults() Credential {
	switch c.Provider {
	case Anthropic:
		if c.Model == "" {
			c.Model = DefaultAnthropicModel
		}
		if c.BaseURL == "" {
			c.BaseURL = DefaultAnthropicBaseURL
		}
	case OpenAI:
		if c.Model == "" {
			c.Model = DefaultOpenAIModel
		}
		if c.BaseURL == "" {
			c.BaseURL = DefaultOpenAIBaseURL
		}
	case OpenRouter:
		if c.Model == "" {
			c.Model = DefaultOpenRouterModel
		}
		if c.BaseURL == "" {
			c.BaseURL = DefaultOpenRouterBaseURL
		}
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Fragment is one unit of the normalized output stream. Exactly one of the
// three shapes is used: a text delta, the final done marker, or an error.
type Fragment struct {
	Text         string
	IsFinal      bool
	ErrorMessage string
}

// FragmentKind classifies a Fragment.
type FragmentKind int

// Fragment kinds.
const (
	KindDelta FragmentKind = iota
	KindDone
	KindError
)

// DeltaFragment returns a text delta.
func DeltaFragment(text string) Fragment {
	return Fragment{Text: text}
}

// DoneFragment returns the terminal success marker.
func DoneFragment() Fragment {
	return Fragment{IsFinal: true}
}

// ErrorFragment returns the terminal error marker.
func ErrorFragment(msg string) Fragment {
	return Fragment{IsFinal: true, ErrorMessage: msg}
}

// Kind reports which of the three shapes f has.
func (f Fragment) Kind() FragmentKind {
	switch {
	case f.ErrorMessage != "":
		return KindError
	case f.IsFinal:
		return KindDone
	default:
		return KindDelta
	}
}

// ProviderHealth is the health snapshot tracked per provider.
type ProviderHealth struct {
	IsHealthy             bool
	LastCheck             time.Time
	ConsecutiveFailures   int
	LastError             error
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}
