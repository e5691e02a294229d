// Package relay turns an upstream vendor event stream into the uniform
// fragment sequence sent to browsers.
//
// A relay call walks the provider chain until one provider answers with a
// streaming body, then decodes the body incrementally:
//
//	bytes -> UTF-8 decoder -> Framer (split on blank lines) -> Adapter.ParseStreamFrame -> Fragment
//
// Every call ends with exactly one terminal fragment, either done or error,
// unless the caller cancelled the context. Fallback to the next provider is
// only possible before the first upstream byte was accepted.
package relay
