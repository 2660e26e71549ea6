// Package taskgraph models task records of a release/build graph and the lazy
// transform pipeline that rewrites them.
//
// A Sequence composes named Transform steps in registration order. Each step
// consumes a single-use Stream of Task records and yields another Stream,
// so large job lists are never materialized between steps. The package also
// hosts keyed-by value resolution and the parameter helpers shared by the
// transforms in internal/transforms.
package taskgraph
