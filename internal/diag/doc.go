// Package diag defines the diagnostic model shared by the filter pipeline,
// the generators and the driver.
//
// # Data model
//
// A Descriptor is the stable description of one diagnostic kind: code,
// title, message format, default severity and category. Descriptors are
// registered once at init time so that diagnostics restored from the disk
// cache can find them again by code.
//
// Diagnostic is the central record. It references its descriptor and keeps
// the message arguments as strings; Message formats the text on demand.
//
//   - Severity starts as the descriptor default.
//   - Primary is the canonical source.Span pointing to the offending
//     declaration.
//   - Notes add secondary spans (e.g. the containing type that must be
//     partial).
//   - Fixes describe structured edits.
//
// # Fix suggestions
//
// Fix carries a title, a kind, an applicability level, concrete TextEdits
// and an optional Thunk for fixes that are expensive to build. TextEdit.OldText
// is a guard checked by the fix engine before an edit is applied.
//
// # Emitting diagnostics
//
// Producers depend on Reporter only. BagReporter collects into a Bag and
// MultiReporter fans out. Bag.Dedup drops repeats once all passes are done.
//
// Rendering lives in internal/diagfmt, fix application in internal/fix.
package diag
