// Package tavily is a small client for the Tavily web search API used by the
// news, daily, ingest and research features.
//
// A Client without an API key is valid; every search then fails fast with
// ErrNoAPIKey so callers can fall back to static content.
package tavily
