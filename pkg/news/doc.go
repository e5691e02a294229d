// Package news serves the curated AI news and daily ticker lists and runs
// the scheduled AI-Act snapshot ingest.
//
// Lists come from Tavily when a key is configured and are cached for
// twelve hours. Without a key, on errors or on empty results the built-in
// curated lists are served instead.
package news
