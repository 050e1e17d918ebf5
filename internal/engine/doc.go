// SPDX-License-Identifier: MPL-2.0

// Package engine executes parsed Runfiles: it resolves interpreters,
// platform-filters definitions into an immutable function table, composes
// compatible siblings and top-level variables into one script per
// invocation, substitutes arguments, and runs exactly one subprocess.
package engine
