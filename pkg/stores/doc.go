// Package stores persists environment state.
//
// Two stores live here. FileStore keeps the authoritative snapshot of each
// environment as a single JSON document under a per-environment directory,
// written atomically so a crash never leaves a half-written snapshot behind.
// EventStore is a SQLite side artifact that records workflow runs and their
// step events for later inspection; losing it never loses environment state.
package stores
