package graph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Candidate is an unlabeled account with at least one edge to the labeled set.
type Candidate struct {
	AccountID int64   `json:"account_id"`
	Score     float64 `json:"score"`
}

// CenterScores counts, for every labeled account, the edges in either
// direction whose other end is also labeled. Accounts with no such edge
// score 0.
func (s *GraphSnapshot) CenterScores() map[int64]float64 {
	scores := make(map[int64]float64, len(s.Weights))
	for id := range s.Weights {
		scores[id] = 0
	}
	for _, e := range s.Edges {
		if s.IsLabeled(e.Author) && s.IsLabeled(e.Follower) {
			scores[e.Author]++
			scores[e.Follower]++
		}
	}
	return scores
}

// ComputeWeights normalizes center scores by their mean over the whole
// labeled set, rounded to two decimals. When every center score is 0 all
// weights are 1.
func (s *GraphSnapshot) ComputeWeights() map[int64]float64 {
	centers := s.CenterScores()
	weights := make(map[int64]float64, len(centers))
	if len(centers) == 0 {
		return weights
	}

	ids := s.LabeledIDs()
	values := make([]float64, len(ids))
	for i, id := range ids {
		values[i] = centers[id]
	}
	mean := stat.Mean(values, nil)

	for _, id := range ids {
		if mean == 0 {
			weights[id] = 1.0
			continue
		}
		weights[id] = round2(centers[id] / mean)
	}
	return weights
}

// RefreshWeights replaces the snapshot's weights with ComputeWeights and
// returns them.
func (s *GraphSnapshot) RefreshWeights() map[int64]float64 {
	w := s.ComputeWeights()
	for id, v := range w {
		s.Weights[id] = v
	}
	return w
}

// Scores ranks every unlabeled account touching the labeled set. Each edge
// between a candidate and a labeled account adds that account's weight, so
// a mutual follow counts twice. Sorted by score descending, then id.
func (s *GraphSnapshot) Scores() []Candidate {
	scores := make(map[int64]float64)
	for _, e := range s.Edges {
		authorLabeled, followerLabeled := s.IsLabeled(e.Author), s.IsLabeled(e.Follower)
		switch {
		case authorLabeled && !followerLabeled:
			scores[e.Follower] += s.Weights[e.Author]
		case followerLabeled && !authorLabeled:
			scores[e.Author] += s.Weights[e.Follower]
		}
	}

	out := make([]Candidate, 0, len(scores))
	for id, score := range scores {
		out = append(out, Candidate{AccountID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
