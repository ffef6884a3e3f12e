// Package notifications delivers run-level events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled, so the workflow can always call the Service without checking
// configuration first.
package notifications
