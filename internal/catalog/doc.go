// Package catalog persists run history and tag change backups in SQLite.
// Every detection run records its per-track outcomes, and every applied tag
// rewrite stores the previous value so a correction can be undone by hand.
// A file lock next to the database keeps concurrent invocations from
// interleaving writes against the same catalog.
package catalog
