// Package logging wires slog into mpv-scraper with console and JSON handlers.
//
// The console handler renders compact "ts LEVEL component: msg k=v" lines and
// the JSON handler emits ts/level/msg keyed records for machine consumption.
// Components obtain their own logger via NewComponentLogger so every record
// carries a component attribute, and NewNop supplies a silent logger for
// tests and optional collaborators.
package logging
