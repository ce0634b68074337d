// Package ref provides the foundational record-reference types for opschain.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ref; ref imports nothing internal. This keeps it
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A Ref addresses a record polymorphically as (kind, id); there is no
//     native foreign key across the per-kind tables, so existence is never
//     guaranteed by construction.
//   - Stamps are stored as text in the canonical layout and parsed on
//     demand; parse failures are classified, never fatal.
package ref
