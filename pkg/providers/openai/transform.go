package openai

import (
	"fmt"

	"hohl-rocks/relay/pkg/providers"
)

// OpenAIRequest is the chat completions request body.
type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

// OpenAIMessage is one chat message in OpenAI format.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponse is the non-streaming chat completion response.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
}

// OpenAIChoice is a completion choice.
type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// OpenAIStreamResponse is one chunk of the SSE stream.
type OpenAIStreamResponse struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Model   string               `json:"model"`
	Choices []OpenAIStreamChoice `json:"choices"`
	Error   *OpenAIError         `json:"error,omitempty"`
}

// OpenAIStreamChoice is a choice inside a stream chunk.
type OpenAIStreamChoice struct {
	Index        int               `json:"index"`
	Delta        OpenAIStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

// OpenAIStreamDelta is the incremental content of a chunk.
type OpenAIStreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// OpenAIError is an error object sent in-band, as some compatible vendors do
// when a stream fails after it started.
type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// doneSentinel terminates the stream.
const doneSentinel = "[DONE]"

// transformRequest expects a normalized request.
func transformRequest(model string, req *providers.GenerationRequest, streaming bool) *OpenAIRequest {
	messages := make([]OpenAIMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, OpenAIMessage{Role: string(providers.RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		if m.Role == providers.RoleSystem {
			continue
		}
		messages = append(messages, OpenAIMessage{Role: string(m.Role), Content: m.Content})
	}

	return &OpenAIRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
		Stream:      streaming,
	}
}

func responseText(resp *OpenAIResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
