// Package history keeps a SQLite ledger of encode jobs so the CLI and API can
// show what ran, how it ended, and where its transcript was saved.
package history
