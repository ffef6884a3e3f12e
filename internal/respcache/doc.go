// Package respcache stores provider responses on disk with a 24 hour TTL.
//
// Every provider call passes through the cache: a hit short-circuits the
// network, a miss (absent, expired, or unreadable entry) triggers a refetch
// whose result overwrites the entry. The store grows unbounded over the
// library's lifetime; it mirrors slow-changing external catalogs, so no
// eviction beyond TTL is needed.
package respcache
