// Package loader materializes the jobs of a kind from its kind.yml configuration.
//
// Loaders are looked up by symbolic identifier in a Registry populated at
// start-up; unknown identifiers fail closed. The reference loader pulls a
// filtered subset of jobs from a secondary task graph rooted at another base
// path and returns the merged kind configuration instead of mutating its input.
package loader
