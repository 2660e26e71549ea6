// Package graph provides the kind-generate and task-transform commands.
package graph
