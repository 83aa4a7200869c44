package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anviltrack/internal/domain"
)

func edge(parent, child int64, role string) domain.GroupGroupMembership {
	return domain.GroupGroupMembership{ParentGroupID: parent, ChildGroupID: child, Role: role}
}

// 1 → 2 → 3, 1 → 3 (diamond via 2), 4 isolated.
func diamondGraph() *Graph {
	return New([]domain.GroupGroupMembership{
		edge(1, 2, domain.RoleMember),
		edge(2, 3, domain.RoleAdmin),
		edge(1, 3, domain.RoleMember),
	})
}

func TestGraph_DirectLookups(t *testing.T) {
	g := diamondGraph()

	assert.Equal(t, []int64{2, 3}, g.DirectChildren(1))
	assert.Equal(t, []int64{3}, g.DirectChildren(2))
	assert.Empty(t, g.DirectChildren(3))

	assert.Equal(t, []int64{1, 2}, g.DirectParents(3))
	assert.Equal(t, []int64{1}, g.DirectParents(2))
	assert.Empty(t, g.DirectParents(1))
}

func TestGraph_TransitiveClosure(t *testing.T) {
	g := diamondGraph()

	assert.Equal(t, []int64{2, 3}, g.AllChildren(1))
	assert.Equal(t, []int64{1, 2}, g.AllParents(3))
	assert.Empty(t, g.AllChildren(4))
}

func TestGraph_ClosureIsIdempotent(t *testing.T) {
	g := diamondGraph()

	children := g.AllChildren(1)
	again := map[int64]bool{}
	for _, id := range children {
		again[id] = true
		for _, c := range g.AllChildren(id) {
			again[c] = true
		}
	}
	require.Len(t, again, len(children), "closure of the closure must add no new nodes")
}

func TestGraph_WouldCycle(t *testing.T) {
	g := diamondGraph()

	assert.True(t, g.WouldCycle(5, 5), "self-loop")
	assert.True(t, g.WouldCycle(3, 1), "direct back-edge")
	assert.True(t, g.WouldCycle(3, 2), "transitive back-edge")
	assert.False(t, g.WouldCycle(1, 4), "fresh edge to isolated node")
	assert.False(t, g.WouldCycle(2, 4))
	// Adding a second path 1→3 alongside the diamond is redundant but acyclic.
	assert.False(t, g.WouldCycle(1, 3))
}

func TestGraph_FullGraph(t *testing.T) {
	g := diamondGraph()
	groups := []domain.ManagedGroup{
		{ID: 2, Name: "b"},
		{ID: 1, Name: "a"},
		{ID: 3, Name: "c"},
	}

	snap := g.FullGraph(groups, map[int64]int{1: 2, 3: 1})

	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "a", snap.Nodes[0].Group.Name)
	assert.Equal(t, 2, snap.Nodes[0].ChildGroups)
	assert.Equal(t, 2, snap.Nodes[0].AccountMembers)
	assert.Equal(t, 0, snap.Nodes[1].AccountMembers)

	require.Len(t, snap.Edges, 3)
	assert.Equal(t, Edge{ParentGroupID: 1, ChildGroupID: 2, Role: domain.RoleMember}, snap.Edges[0])
	assert.Equal(t, Edge{ParentGroupID: 2, ChildGroupID: 3, Role: domain.RoleAdmin}, snap.Edges[2])
}
