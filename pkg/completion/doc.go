// Package completion is the non-streaming counterpart of package relay. It
// sends one request to the selected provider and returns the whole
// completion text.
//
// Callers that only need a final string, such as the research endpoint or
// the CLI, use a Facade. Without any configured provider Complete returns
// Placeholder instead of an error.
package completion
