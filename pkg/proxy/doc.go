// Package proxy holds the HTTP plumbing shared by the relay's handlers:
// request decoding, JSON and Server-Sent Events response writers, and the
// mapping from domain errors to client error codes.
//
// # Wire Format
//
// JSON errors are always a single short code:
//
//	{"error": "invalid_body"}
//
// Streaming responses use text/event-stream with one JSON object per record:
//
//	data: {"delta":"Hallo"}
//
//	data: {"delta":" Welt"}
//
//	data: {"done":true}
//
// A failed stream ends with a single error record instead of the done record:
//
//	data: {"error":"anthropic_http_500"}
//
// Upstream bodies and API keys never reach a client; the codes come from
// providers.ClientMessage or from HandleError.
//
// # Subpackages
//
//   - handlers: one handler per route (run, news, research, replicate,
//     prompts, health)
//   - middleware: recovery, access logging, request IDs, CORS and per-client
//     rate limiting
package proxy
