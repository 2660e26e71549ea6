// Package cli constructs the commgraph command-line interface, wiring the
// Cobra command hierarchy, the layered configuration loader and structured
// logging around the graph and l10n commands.
package cli
