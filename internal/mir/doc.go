// Package mir provides the macro intermediate representation for macrolens.
//
// This package contains the node model only. All other internal packages
// import mir; mir imports nothing internal. This keeps the IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Node kinds form a closed enumeration (Kind); recognition anywhere
//     else in the tree dispatches on Kind, never on Go types
//   - Node identity is arena-assigned (NodeID) and stable for the life
//     of one translation session
//   - Nodes are never mutated in place after creation; the only
//     structural changes are atomic replacement (Replace) and removal
//     (Remove), both of which redirect or drop uses
//   - Regions are exclusively owned by the node that contains them
package mir
