// Package exchange converts batches of records to and from flat tabular files.
//
// Records carry an open-ended set of custom attributes, so the column set of
// an exchange file is not known ahead of time. The package handles both
// directions:
//
//   - Export: [Reconcile] computes the ordered union of attribute names
//     across a batch, then [WriteCSV] or [WriteWorkbook] lays every record out
//     as ID, Name, Description followed by one column per reconciled name.
//   - Import: [ReadCSV] or [ReadWorkbook] treats the header row as the
//     authoritative column map. Fixed labels populate fixed fields; every
//     other label becomes a custom attribute.
//
// # Tolerance
//
// Import accepts partially conforming files produced by external tools.
// Unknown columns, missing values, short rows and unparsable identifiers
// degrade gracefully and never fail the file. Only a missing header or a
// structurally broken document is an error.
//
// # Errors
//
// Every error returned by the codecs and the facade is a [*Failure] of kind
// [KindValidation], [KindImport] or [KindExport], except store errors from
// the final batch save, which are returned unmodified. [MapError] turns any
// error into a user-facing message with a support code.
//
// # Facade
//
// [Service] ties the codecs to a record repository: it loads every record
// for export, validates uploads before parsing, saves imported batches in a
// single call, and bounds the number of concurrent exchange operations.
package exchange
