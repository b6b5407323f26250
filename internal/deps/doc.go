// Package deps verifies that runtime dependencies are present, installing them
// through an ordered list of strategies when they are not.
//
// Each dependency moves through:
//
//	Unchecked -> (Attempting -> Failed | Succeeded)* -> Verified | MissingOptional | MissingFatal
//
// A passing presence check short-circuits to Verified without touching any
// strategy, so re-running an install is cheap. Strategies run strictly in declared
// order and the first one whose follow-up presence check passes ends the search.
// When every strategy fails, the shared severity policy decides: Strict stops the
// whole run with MissingFatal, Lenient records MissingOptional and moves on.
package deps
