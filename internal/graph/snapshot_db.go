package graph

import (
	"context"

	"tweetgraph/hunter/internal/db"
)

// Source is the part of the store a snapshot is read from. Both *db.DB and
// the *db.Queries of a transaction satisfy it.
type Source interface {
	AllEdges(ctx context.Context) ([]db.Edge, error)
	Labels(ctx context.Context) ([]db.Label, error)
}

// SnapshotFromDB loads a GraphSnapshot from the database
func SnapshotFromDB(ctx context.Context, src Source) (*GraphSnapshot, error) {
	dbEdges, err := src.AllEdges(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := src.Labels(ctx)
	if err != nil {
		return nil, err
	}

	edges := make([]EdgeInfo, 0, len(dbEdges))
	for _, e := range dbEdges {
		edges = append(edges, EdgeInfo{Author: e.AuthorID, Follower: e.FollowerID})
	}
	weights := make(map[int64]float64, len(labels))
	for _, l := range labels {
		weights[l.AccountID] = l.Weight
	}
	return NewSnapshot(edges, weights), nil
}
