// Package workflow ties the scraper together: it scans the library, resolves
// metadata through the provider fallback chains, downloads artwork through
// the bounded worker pool, and writes gamelist.xml files.
//
// Every mutating operation takes the per-library run lock and journals the
// files it creates or modifies so Undo can put the library back the way it
// was. Run composes scrape and generate under a single lock; RunJob and
// ScrapeShowJob wrap the same operations as cancellable background jobs.
package workflow
