package graph

import (
	"context"
	"reflect"
	"testing"
	"time"

	"tweetgraph/hunter/internal/db"
)

// quickSnapshot builds a snapshot from (follower, author) pairs and labeled weights.
func quickSnapshot(follows [][2]int64, weights map[int64]float64) *GraphSnapshot {
	var edges []EdgeInfo
	for _, f := range follows {
		edges = append(edges, EdgeInfo{Follower: f[0], Author: f[1]})
	}
	return NewSnapshot(edges, weights)
}

// --- Scoring Tests ---

func TestScore_SumsLabeledNeighborWeights(t *testing.T) {
	// X (10) is followed by W1 (1, weight 1.0) and follows W2 (2, weight 2.0)
	snap := quickSnapshot(
		[][2]int64{{1, 10}, {10, 2}},
		map[int64]float64{1: 1.0, 2: 2.0},
	)
	got := snap.Scores()
	want := []Candidate{{AccountID: 10, Score: 3.0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scores() = %v, want %v", got, want)
	}
}

func TestScore_MutualFollowCountsTwice(t *testing.T) {
	snap := quickSnapshot(
		[][2]int64{{1, 10}, {10, 1}},
		map[int64]float64{1: 1.5},
	)
	got := snap.Scores()
	if len(got) != 1 || got[0].Score != 3.0 {
		t.Errorf("expected single candidate with score 3.0, got %v", got)
	}
}

func TestScore_ExcludesLabeledAndUnconnected(t *testing.T) {
	snap := quickSnapshot(
		[][2]int64{
			{1, 2},   // labeled -> labeled
			{1, 10},  // candidate
			{10, 11}, // 11 only touches a candidate
			{12, 13}, // unrelated
		},
		map[int64]float64{1: 1.0, 2: 1.0},
	)
	got := snap.Scores()
	want := []Candidate{{AccountID: 10, Score: 1.0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scores() = %v, want %v", got, want)
	}
}

func TestScore_Ordering(t *testing.T) {
	snap := quickSnapshot(
		[][2]int64{{1, 30}, {1, 20}, {2, 20}, {1, 10}, {10, 2}},
		map[int64]float64{1: 1.0, 2: 0.5},
	)
	got := snap.Scores()
	want := []Candidate{
		{AccountID: 10, Score: 1.5},
		{AccountID: 20, Score: 1.5},
		{AccountID: 30, Score: 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scores() = %v, want %v", got, want)
	}
}

func TestScore_ZeroWeightStillCandidate(t *testing.T) {
	snap := quickSnapshot([][2]int64{{1, 10}}, map[int64]float64{1: 0})
	got := snap.Scores()
	if len(got) != 1 || got[0].AccountID != 10 || got[0].Score != 0 {
		t.Errorf("expected candidate 10 with score 0, got %v", got)
	}
}

func TestCenterScores(t *testing.T) {
	snap := quickSnapshot(
		[][2]int64{{1, 2}, {2, 1}, {3, 4}},
		map[int64]float64{1: 1, 2: 1, 3: 1},
	)
	got := snap.CenterScores()
	want := map[int64]float64{1: 2, 2: 2, 3: 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CenterScores() = %v, want %v", got, want)
	}
}

func TestWeights_NormalizedByMean(t *testing.T) {
	// centers 1:2, 2:1, 3:1 -> mean 4/3
	snap := quickSnapshot(
		[][2]int64{{1, 2}, {1, 3}, {3, 9}},
		map[int64]float64{1: 1, 2: 1, 3: 1},
	)
	got := snap.ComputeWeights()
	want := map[int64]float64{1: 1.5, 2: 0.75, 3: 0.75}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComputeWeights() = %v, want %v", got, want)
	}
	// weights feed candidate scores only after a refresh
	if snap.Weights[2] != 1 {
		t.Errorf("ComputeWeights must not modify the snapshot, got %v", snap.Weights)
	}
	snap.RefreshWeights()
	if !reflect.DeepEqual(snap.Weights, want) {
		t.Errorf("after refresh Weights = %v, want %v", snap.Weights, want)
	}
}

func TestWeights_IncludesIsolatedInMean(t *testing.T) {
	// centers 1:1, 2:1, 3:0 -> mean 2/3
	snap := quickSnapshot([][2]int64{{1, 2}}, map[int64]float64{1: 1, 2: 1, 3: 1})
	got := snap.ComputeWeights()
	want := map[int64]float64{1: 1.5, 2: 1.5, 3: 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComputeWeights() = %v, want %v", got, want)
	}
}

func TestWeights_ZeroMean(t *testing.T) {
	snap := quickSnapshot([][2]int64{{1, 10}}, map[int64]float64{1: 3, 2: 0.5})
	got := snap.ComputeWeights()
	want := map[int64]float64{1: 1, 2: 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComputeWeights() = %v, want %v", got, want)
	}
}

func TestWeights_Empty(t *testing.T) {
	snap := quickSnapshot([][2]int64{{1, 2}}, nil)
	if got := snap.ComputeWeights(); len(got) != 0 {
		t.Errorf("expected no weights, got %v", got)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.0 / 3.0, 0.67},
		{0.125, 0.13},
		{1.5, 1.5},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLabel_InMemory(t *testing.T) {
	snap := quickSnapshot([][2]int64{{1, 10}, {10, 11}}, map[int64]float64{1: 2.5})
	snap.Label(10, 1)
	if snap.Weights[1] != 2.5 {
		t.Errorf("existing label weight changed to %v", snap.Weights[1])
	}
	if !snap.IsLabeled(10) || snap.Weights[10] != 1.0 {
		t.Errorf("10 should be labeled with weight 1.0, got %v", snap.Weights)
	}
	got := snap.Scores()
	if len(got) != 1 || got[0].AccountID != 11 {
		t.Errorf("expected only 11 as candidate, got %v", got)
	}
}

func TestSnapshot_DropsSelfFollow(t *testing.T) {
	snap := quickSnapshot([][2]int64{{1, 1}, {1, 2}}, map[int64]float64{1: 1})
	if len(snap.Edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(snap.Edges))
	}
	if snap.Degree(1) != 1 {
		t.Errorf("expected degree 1, got %d", snap.Degree(1))
	}
	if got := snap.AccountIDs(); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("AccountIDs() = %v", got)
	}
}

// --- UnionFind Tests ---

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind([]int64{1, 2, 3, 4, 5})
	if !uf.Union(1, 2) || !uf.Union(3, 2) || !uf.Union(4, 5) {
		t.Fatal("unions of separate components should report true")
	}
	if uf.Union(1, 3) {
		t.Error("1 and 3 are already joined")
	}
	if uf.Size(3) != 3 {
		t.Errorf("expected size 3, got %d", uf.Size(3))
	}
	got := uf.Components()
	want := [][]int64{{1, 2, 3}, {4, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

// --- Cluster Tests ---

func TestCluster_Empty(t *testing.T) {
	r := ComputeCluster(NewSnapshot(nil, nil), 10)
	if r.TotalAccounts != 0 || r.Labeled != 0 || r.NumComponents != 0 {
		t.Errorf("empty graph should have all zeros, got %+v", r)
	}
	if len(r.DegreeHistogram) != 7 {
		t.Errorf("expected 7 histogram buckets, got %d", len(r.DegreeHistogram))
	}
}

func TestCluster_Components(t *testing.T) {
	snap := quickSnapshot(
		[][2]int64{{1, 2}, {3, 2}, {4, 5}, {7, 1}},
		map[int64]float64{1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1},
	)
	r := ComputeCluster(snap, 10)

	if r.TotalAccounts != 7 || r.TotalEdges != 4 || r.Labeled != 6 {
		t.Errorf("unexpected totals: %+v", r)
	}
	if r.NumComponents != 3 {
		t.Errorf("expected 3 components, got %d", r.NumComponents)
	}
	if r.LargestComponent != 3 || r.SmallestComponent != 1 {
		t.Errorf("expected largest=3 smallest=1, got %d/%d", r.LargestComponent, r.SmallestComponent)
	}
	if r.IsolatedCount != 1 || !reflect.DeepEqual(r.IsolatedIDs, []int64{6}) {
		t.Errorf("expected 6 isolated, got %v", r.IsolatedIDs)
	}
	if len(r.Hubs) == 0 || r.Hubs[0].AccountID != 2 || r.Hubs[0].CenterScore != 2 || r.Hubs[0].InDegree != 2 {
		t.Errorf("expected 2 as top hub, got %+v", r.Hubs)
	}
	if r.Candidates != 1 || r.TopCandidates[0].AccountID != 7 {
		t.Errorf("expected candidate 7, got %v", r.TopCandidates)
	}

	// degrees of labeled accounts: 1:2, 2:2, 3:1, 4:1, 5:1, 6:0
	wantHist := map[string]int{"0": 1, "1": 3, "2-3": 2}
	for _, b := range r.DegreeHistogram {
		if b.Count != wantHist[b.Label] {
			t.Errorf("bucket %s: expected %d, got %d", b.Label, wantHist[b.Label], b.Count)
		}
	}
}

func TestCluster_TopNTruncates(t *testing.T) {
	weights := map[int64]float64{}
	for id := int64(1); id <= 5; id++ {
		weights[id] = 1
	}
	r := ComputeCluster(quickSnapshot(nil, weights), 2)
	if r.IsolatedCount != 5 || len(r.IsolatedIDs) != 2 || len(r.Hubs) != 2 {
		t.Errorf("expected truncation to 2, got isolated=%v hubs=%v", r.IsolatedIDs, r.Hubs)
	}
}

// --- DB Tests ---

func TestSnapshotFromDB(t *testing.T) {
	ctx := context.Background()
	d, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	var ids []int64
	for ext := int64(100); ext < 103; ext++ {
		id, err := d.UpsertAccount(ctx, db.Account{ExternalID: ext, CreatedAt: time.Now()})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if err := d.Follow(ctx, ids[0], ids[2]); err != nil {
		t.Fatal(err)
	}
	if err := d.Follow(ctx, ids[2], ids[1]); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddLabels(ctx, ids[:2], false); err != nil {
		t.Fatal(err)
	}
	if err := d.SetWeights(ctx, map[int64]float64{ids[0]: 1.0, ids[1]: 2.0}); err != nil {
		t.Fatal(err)
	}

	snap, err := SnapshotFromDB(ctx, d)
	if err != nil {
		t.Fatal(err)
	}
	got := snap.Scores()
	want := []Candidate{{AccountID: ids[2], Score: 3.0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scores() = %v, want %v", got, want)
	}
}
