package anthropic

import (
	"fmt"
	"strings"

	"hohl-rocks/relay/pkg/providers"
)

// AnthropicRequest is the Messages API request body.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []AnthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
}

// AnthropicMessage is one turn in Anthropic format.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock is a block of a non-streaming response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// AnthropicResponse is the non-streaming Messages API response.
type AnthropicResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
}

// AnthropicStreamEvent is the data payload of one SSE frame.
type AnthropicStreamEvent struct {
	Type  string          `json:"type"`
	Index int             `json:"index,omitempty"`
	Delta *StreamDelta    `json:"delta,omitempty"`
	Error *AnthropicError `json:"error,omitempty"`
}

// StreamDelta is the delta of content_block_delta and message_delta events.
type StreamDelta struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// AnthropicError is the payload of an in-band error event.
type AnthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Stream event types.
const (
	eventMessageStart      = "message_start"
	eventContentBlockStart = "content_block_start"
	eventContentBlockDelta = "content_block_delta"
	eventContentBlockStop  = "content_block_stop"
	eventMessageDelta      = "message_delta"
	eventMessageStop       = "message_stop"
	eventPing              = "ping"
	eventError             = "error"
)

// transformRequest maps a normalized generation request onto the Messages
// API.
func transformRequest(model string, req *providers.GenerationRequest, streaming bool) *AnthropicRequest {
	return &AnthropicRequest{
		Model:       model,
		System:      req.System,
		Messages:    transformMessages(req.Messages),
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		Stream:      streaming,
	}
}

// transformMessages drops system turns, drops leading assistant turns and
// merges consecutive turns of the same role so the sequence alternates and
// starts with the user.
func transformMessages(messages []providers.Message) []AnthropicMessage {
	out := make([]AnthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == providers.RoleSystem {
			continue
		}
		if len(out) == 0 && m.Role != providers.RoleUser {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == string(m.Role) {
			out[n-1].Content = out[n-1].Content + "\n\n" + m.Content
			continue
		}
		out = append(out, AnthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// responseText concatenates the text blocks of a response.
func responseText(resp *AnthropicResponse) (string, error) {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 && len(resp.Content) == 0 {
		return "", fmt.Errorf("response has no content blocks")
	}
	return sb.String(), nil
}
