// Package core provides the business logic for bulk record imports.
//
// This package is the heart of the importer, containing all domain logic
// independent of any transport layer. It is used by the HTTP handlers, the
// importctl CLI and tests without modification.
//
// # Architecture
//
// An import moves through a fixed sequence of steps:
//
//  1. [SecurityGate] compares the caller secret with the configured one
//  2. [Dispatch] checks the table type and row count against the registry
//  3. [Normalizer] cleans each row and collects [FieldError] values
//  4. the valid rows go to a [Submitter] in a single call
//  5. the outcome is folded into an [ImportResult]
//
// Steps 1 and 2 reject the whole request. Step 3 never does: a row with
// errors is simply left out of the submission. Step 4 is all or nothing.
//
// # Table Registry
//
// Tables are registered at init time using [Register]. Import the tables
// subpackage for its side effects to get the standard set:
//
//	import _ "github.com/JonMunkholm/vetimport/internal/core/tables"
//
// # Dates
//
// Spreadsheet dates arrive in whatever shape the exporting tool chose.
// [DateResolver] applies an ordered list of rules with no locale hint; see
// dates.go for the rule order and its one known ambiguity.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL001-VAL005: Request validation (table type, rows, body)
//   - AUTH001-AUTH002: Caller secret
//   - SUB001-SUB003: Downstream submission
//   - IMP001-IMP002: Import capacity and cancellation
package core
