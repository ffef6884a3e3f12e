// Package providers defines the shared contract for external metadata
// sources and the rate-limited HTTP requester the concrete clients build on.
//
// Each source (tvdb, tmdb, omdb, tvmaze, fanarttv) lives in its own
// subpackage and normalizes provider-specific payloads into
// metadata.Record at the client boundary; provider shapes never propagate
// upward. Clients are cache-backed and retry-wrapped, and a client without
// credentials fails fast with the unconfigured marker instead of touching
// the network.
package providers
