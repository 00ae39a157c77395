// Package notifications delivers pipeline milestones via ntfy push messages.
//
// The default implementation posts to the topic URL configured in config.toml
// and degrades to a no-op when no topic is set, so stage handlers can publish
// unconditionally. All pipeline code depends only on the Service interface.
package notifications
