// Package graph scores accounts against the labeled set over an in-memory
// snapshot of the follow graph.
package graph

import "sort"

// EdgeInfo is a follow edge decoupled from DB types: Follower follows Author.
type EdgeInfo struct {
	Author   int64
	Follower int64
}

// GraphSnapshot holds the follow graph with precomputed adjacency lists and
// the weights of the labeled accounts.
type GraphSnapshot struct {
	Edges     []EdgeInfo
	Friends   map[int64][]int64 // follower -> authors it follows
	Followers map[int64][]int64 // author -> its followers
	Weights   map[int64]float64 // labeled account -> weight
}

// NewSnapshot builds a GraphSnapshot from raw edges and label weights.
// Self-follows are dropped.
func NewSnapshot(edges []EdgeInfo, weights map[int64]float64) *GraphSnapshot {
	s := &GraphSnapshot{
		Friends:   make(map[int64][]int64),
		Followers: make(map[int64][]int64),
		Weights:   make(map[int64]float64, len(weights)),
	}
	for id, w := range weights {
		s.Weights[id] = w
	}
	for _, e := range edges {
		if e.Author == e.Follower {
			continue
		}
		s.Edges = append(s.Edges, e)
		s.Friends[e.Follower] = append(s.Friends[e.Follower], e.Author)
		s.Followers[e.Author] = append(s.Followers[e.Author], e.Follower)
	}
	return s
}

// IsLabeled reports whether id is in the labeled set
func (s *GraphSnapshot) IsLabeled(id int64) bool {
	_, ok := s.Weights[id]
	return ok
}

// Label adds ids to the labeled set with the default weight. Existing
// labels keep their weight.
func (s *GraphSnapshot) Label(ids ...int64) {
	for _, id := range ids {
		if _, ok := s.Weights[id]; !ok {
			s.Weights[id] = 1.0
		}
	}
}

// Degree returns the number of edges touching id in either direction
func (s *GraphSnapshot) Degree(id int64) int {
	return len(s.Friends[id]) + len(s.Followers[id])
}

// LabeledIDs returns the labeled account ids, ascending.
func (s *GraphSnapshot) LabeledIDs() []int64 {
	ids := make([]int64, 0, len(s.Weights))
	for id := range s.Weights {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// AccountIDs returns every account that is labeled or touches an edge, ascending.
func (s *GraphSnapshot) AccountIDs() []int64 {
	seen := make(map[int64]bool, len(s.Weights))
	for id := range s.Weights {
		seen[id] = true
	}
	for _, e := range s.Edges {
		seen[e.Author] = true
		seen[e.Follower] = true
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
