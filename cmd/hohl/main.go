// Hohl is the backend of hohl.rocks: it relays LLM completions as event
// streams to the browser and serves the news, research and prompt APIs
// around them.
//
// Usage:
//
//	# Start the server with defaults, .env and environment overrides
//	hohl serve
//
//	# Start with a configuration file
//	hohl serve --config /etc/hohl/config.yaml
//
//	# One completion from the terminal, streamed
//	hohl complete --stream "Erkläre den AI Act in drei Sätzen"
//
//	# Write one news snapshot and exit
//	hohl ingest --region eu
//
//	# List prompt ids as JSON
//	hohl prompts --output json
package main

func main() {
	Execute()
}
