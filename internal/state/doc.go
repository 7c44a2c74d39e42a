// Package state persists incremental build state in SQLite: the fingerprint
// of every written page and a history of builds with their reports.
package state
