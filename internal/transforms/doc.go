// Package transforms implements the Thunderbird-specific task transforms and the
// registry that resolves transform identifiers listed in kind.yml into a
// taskgraph.Sequence.
package transforms
