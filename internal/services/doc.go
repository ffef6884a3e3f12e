// Package services defines the failure taxonomy shared across the scrape
// pipeline: sentinel markers for unconfigured providers, transient network
// errors, empty results, quality failures, and exhausted fallback chains,
// plus the Wrap helper that tags errors with component context.
package services
