// Package chain implements event-chain management for opschain.
//
// An event chain is an operator-defined grouping of log records believed to
// belong to the same real-world incident. The Registry owns chain identity
// and metadata; Links owns the attachment of polymorphic record references
// to chains.
//
// ARCHITECTURE:
//
// Both services take their store at construction (explicit dependency
// injection, no package-level singletons) and run every operation
// synchronously on the caller's goroutine. The tool is single-operator:
// there is no locking here beyond what SQLite provides per statement.
//
// The one known race lives in Links.Attach: duplicate protection is a
// check-then-insert sequence, because the store has no composite unique
// index over the polymorphic (chain, kind, id) triple. Two concurrent
// writers could slip a duplicate through. Acceptable for a single-writer
// desktop process; a multi-writer deployment must move the check into a
// store constraint.
//
// Timestamp handling: links keep the raw stamp text verbatim. Ordering and
// analytics parse on read; malformed stamps are flagged and sorted last,
// never dropped, so an operator can see and correct them.
package chain
