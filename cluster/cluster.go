// Package cluster merges matched pairs into maximal groups of records.
// Clustering is the connected-components computation over the graph whose
// nodes are record ids and whose edges are pairs: if A pairs with B and B
// pairs with C, all three land in one cluster even though A and C were
// never directly compared.
package cluster

import (
	"sort"

	"github.com/hupe1980/entigo/match"
	"github.com/hupe1980/entigo/record"
)

// Cluster is a maximal set of records transitively connected by matched
// pairs, representing one inferred real-world entity. Clusters live only as
// the output of one run; a new run recomputes them from scratch.
type Cluster struct {
	// Label names the cluster after its smallest member id, so labels are
	// stable under input reordering.
	Label string

	// Members are the record ids, sorted ascending. Never empty.
	Members []record.ID

	// Confidence is the mean confidence of the contributing pairs, or 1.0
	// for a singleton.
	Confidence float32

	// Pairs are the contributing pairs, kept for explainability. Empty
	// for singletons.
	Pairs []match.Pair
}

// UnionFind is a disjoint-set forest over record ids, with path compression
// and union by rank.
type UnionFind struct {
	parent map[record.ID]record.ID
	rank   map[record.ID]int
}

// NewUnionFind creates a forest where every id is its own set. The ids must
// be unique.
func NewUnionFind(ids []record.ID) *UnionFind {
	uf := &UnionFind{
		parent: make(map[record.ID]record.ID, len(ids)),
		rank:   make(map[record.ID]int, len(ids)),
	}

	for _, id := range ids {
		uf.parent[id] = id
	}

	return uf
}

// Find returns the representative of id's set. Unknown ids report false.
func (u *UnionFind) Find(id record.ID) (record.ID, bool) {
	if _, ok := u.parent[id]; !ok {
		return "", false
	}

	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}

	for id != root {
		next := u.parent[id]
		u.parent[id] = root
		id = next
	}

	return root, true
}

// Union joins the sets containing a and b. Unknown endpoints are ignored,
// so a stray pair never invents a record.
func (u *UnionFind) Union(a, b record.ID) {
	ra, ok := u.Find(a)
	if !ok {
		return
	}

	rb, ok := u.Find(b)
	if !ok {
		return
	}

	if ra == rb {
		return
	}

	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}

	u.parent[rb] = ra

	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// Merge partitions ids into the connected components induced by pairs.
//
// The result is a proper partition: every id appears in exactly one
// cluster, singletons included, and the outcome is insensitive to the
// order of ids and pairs. Pairs whose endpoints are not both present in
// ids are ignored. Contributing pairs keep their input order within each
// cluster; clusters are ordered by their smallest member.
func Merge(ids []record.ID, pairs []match.Pair) []Cluster {
	uf := NewUnionFind(ids)

	for _, p := range pairs {
		uf.Union(p.A, p.B)
	}

	members := make(map[record.ID][]record.ID)

	for _, id := range ids {
		root, _ := uf.Find(id)
		members[root] = append(members[root], id)
	}

	clusterPairs := make(map[record.ID][]match.Pair)

	for _, p := range pairs {
		ra, okA := uf.Find(p.A)
		if _, okB := uf.Find(p.B); !okA || !okB {
			continue
		}

		clusterPairs[ra] = append(clusterPairs[ra], p)
	}

	clusters := make([]Cluster, 0, len(members))

	for root, ms := range members {
		sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })

		clusters = append(clusters, Cluster{
			Label:      "cluster_" + string(ms[0]),
			Members:    ms,
			Confidence: meanConfidence(clusterPairs[root]),
			Pairs:      clusterPairs[root],
		})
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Members[0] < clusters[j].Members[0] })

	return clusters
}

func meanConfidence(pairs []match.Pair) float32 {
	if len(pairs) == 0 {
		return 1.0
	}

	var sum float64
	for _, p := range pairs {
		sum += float64(p.Confidence)
	}

	return float32(sum / float64(len(pairs)))
}
