// Package executor runs a view's query tree against a backend and
// materializes the nested results.
//
// # Execution Model
//
// The executor works level by level (BFS). Level 1 holds one task per child
// of the synthetic root. A task is one node instance: a node plus the parent
// row its result will be attached to. Processing a task
//
//   - renders the node's query template against the execution context, with
//     the parent row bound under the parent node's name,
//   - runs the rendered query with Backend.Select,
//   - attaches the result set to the parent row under the node's name, and
//   - schedules one task per (child node, result row) pair on the next level.
//
// A child node therefore runs exactly once per row of its parent, and its
// result is attached only to the row that produced it. Children of the root
// are additionally written into the execution context as Rows under their
// node name, so response templates read them as .name.
//
// # Pass-through Nodes
//
// A node without its own template produces a single row carrying the bindings
// of the row it was scheduled for (an empty row at the root). Its children
// still run once per ancestor row and can read the ancestor's bindings under
// the pass-through node's name.
//
// # Empty Queries
//
// A template that renders to blank text is not sent to the backend; its
// result is an empty set and its subtree does not run. Nothing else about the
// request changes.
//
// # Errors
//
// Any render or backend failure aborts the whole execution: no partial tree
// is returned. Context cancellation is checked before every task, and
// Options.MaxExecutions bounds the number of backend calls per request.
//
// Tasks never overlap: one request issues its queries sequentially, in level
// order and, within a level, in parent-row then child-name order.
package executor
