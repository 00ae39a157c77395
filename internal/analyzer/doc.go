// Package analyzer produces organization proposals for music folders.
//
// The primary path sends the folder's metadata snapshot to an OpenAI-style
// chat completion endpoint and decodes the JSON proposal it returns. When no
// endpoint or API key is configured the package falls back to a heuristic
// proposal built from audio tag patterns and the folder name, marked with low
// confidence so reviewers know its origin.
//
// # Entry Points
//
// NewClient: construct the chat completion client from Config.
// Client.Propose: request a proposal for one folder snapshot.
// FallbackProposal: heuristic proposal without a remote analyzer.
// New: construct the analyze stage handler for the workflow manager.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx responses and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default),
// honoring Retry-After headers. Context cancellation aborts retries
// immediately.
package analyzer
