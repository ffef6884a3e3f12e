// Package main hosts the mpv-scraper CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into library
// scans, metadata scrapes, gamelist generation, undo, job inspection, and the
// interactive dashboard. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
