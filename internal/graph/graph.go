// Package graph provides an in-memory view of the group-to-group membership
// DAG: one-hop lookups, transitive closure, cycle checks and whole-system
// snapshots. A Graph is built once from the persisted membership edges and
// traversed iteratively; it never re-queries the store.
package graph

import (
	"sort"

	"anviltrack/internal/domain"
)

// Graph is an adjacency-list view over group-group membership edges.
// It is immutable after construction.
type Graph struct {
	parents  map[int64][]int64
	children map[int64][]int64
	edges    []domain.GroupGroupMembership
}

// New builds a Graph from membership edges.
func New(edges []domain.GroupGroupMembership) *Graph {
	g := &Graph{
		parents:  make(map[int64][]int64),
		children: make(map[int64][]int64),
		edges:    edges,
	}
	for _, e := range edges {
		g.parents[e.ChildGroupID] = append(g.parents[e.ChildGroupID], e.ParentGroupID)
		g.children[e.ParentGroupID] = append(g.children[e.ParentGroupID], e.ChildGroupID)
	}
	return g
}

// DirectParents returns the one-hop parents of a group.
func (g *Graph) DirectParents(id int64) []int64 {
	return sortedCopy(g.parents[id])
}

// DirectChildren returns the one-hop children of a group.
func (g *Graph) DirectChildren(id int64) []int64 {
	return sortedCopy(g.children[id])
}

// AllParents returns every direct and transitive parent of a group.
// Diamonds in the relation are deduplicated, so the traversal terminates
// and re-applying the closure to its own output adds nothing.
func (g *Graph) AllParents(id int64) []int64 {
	return g.closure(id, g.parents)
}

// AllChildren returns every direct and transitive child of a group.
func (g *Graph) AllChildren(id int64) []int64 {
	return g.closure(id, g.children)
}

func (g *Graph) closure(start int64, adj map[int64][]int64) []int64 {
	seen := map[int64]bool{}
	queue := append([]int64(nil), adj[start]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, adj[id]...)
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WouldCycle reports whether adding an edge parent→child would create a
// self-loop or a cycle. Both closure directions are checked, mirroring the
// write-time validation: reject when the parent is already a descendant of
// the child or the child an ancestor of the parent.
func (g *Graph) WouldCycle(parentID, childID int64) bool {
	if parentID == childID {
		return true
	}
	for _, id := range g.AllChildren(childID) {
		if id == parentID {
			return true
		}
	}
	for _, id := range g.AllParents(parentID) {
		if id == childID {
			return true
		}
	}
	return false
}

// Node is one group in a full-graph snapshot, annotated with its direct
// child-group and account-member counts.
type Node struct {
	Group          domain.ManagedGroup `json:"group"`
	ChildGroups    int                 `json:"child_groups"`
	AccountMembers int                 `json:"account_members"`
}

// Edge is one membership edge in a full-graph snapshot.
type Edge struct {
	ParentGroupID int64  `json:"parent_group_id"`
	ChildGroupID  int64  `json:"child_group_id"`
	Role          string `json:"role"`
}

// Snapshot is a whole-system view of the group hierarchy, used for
// visualization front-ends and whole-system membership queries.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// FullGraph assembles a snapshot covering every group in the system.
// memberCounts maps group id to direct account-member count; groups absent
// from the map have zero members.
func (g *Graph) FullGraph(groups []domain.ManagedGroup, memberCounts map[int64]int) Snapshot {
	snap := Snapshot{
		Nodes: make([]Node, 0, len(groups)),
		Edges: make([]Edge, 0, len(g.edges)),
	}
	for _, grp := range groups {
		snap.Nodes = append(snap.Nodes, Node{
			Group:          grp,
			ChildGroups:    len(g.children[grp.ID]),
			AccountMembers: memberCounts[grp.ID],
		})
	}
	for _, e := range g.edges {
		snap.Edges = append(snap.Edges, Edge{
			ParentGroupID: e.ParentGroupID,
			ChildGroupID:  e.ChildGroupID,
			Role:          e.Role,
		})
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Group.Name < snap.Nodes[j].Group.Name })
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].ParentGroupID != snap.Edges[j].ParentGroupID {
			return snap.Edges[i].ParentGroupID < snap.Edges[j].ParentGroupID
		}
		return snap.Edges[i].ChildGroupID < snap.Edges[j].ChildGroupID
	})
	return snap
}

func sortedCopy(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
