// Package anthropic implements the Adapter for Anthropic's Messages API.
//
// The system instruction travels in the top-level "system" field, messages
// carry only user and assistant turns, and max_tokens is always sent.
// Streaming responses are SSE frames whose data is a typed event; only
// content_block_delta events with text produce fragments and message_stop
// terminates the stream.
//
//	adapter, err := anthropic.New(providers.Credential{
//	    Provider: providers.Anthropic,
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	})
package anthropic
