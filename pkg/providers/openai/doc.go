// Package openai implements the Adapter for OpenAI-compatible chat
// completions endpoints.
//
// The system instruction is sent as a leading "system" message. Stream
// frames carry chat.completion.chunk objects whose first choice holds the
// text delta, and the literal "[DONE]" payload ends the stream. The same
// adapter serves any vendor speaking this dialect; OpenRouter wraps it with
// its attribution headers.
//
//	adapter, err := openai.New(providers.Credential{
//	    Provider: providers.OpenAI,
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
//
// Options change the endpoint, add headers or rename the provider:
//
//	adapter, err := openai.New(cred,
//	    openai.WithName(providers.OpenRouter),
//	    openai.WithHeaders(map[string]string{"X-Title": "hohl.rocks"}),
//	)
package openai
