package graph

import "sort"

// HubAccount is a labeled account embedded deeply in the cluster
type HubAccount struct {
	AccountID   int64   `json:"account_id"`
	CenterScore float64 `json:"center_score"`
	Weight      float64 `json:"weight"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ClusterReport describes how the labeled set sits in the crawled graph
type ClusterReport struct {
	TotalAccounts     int            `json:"total_accounts"`
	TotalEdges        int            `json:"total_edges"`
	Labeled           int            `json:"labeled"`
	Candidates        int            `json:"candidates"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	IsolatedCount     int            `json:"isolated_count"`
	IsolatedIDs       []int64        `json:"isolated_ids"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	Hubs              []HubAccount   `json:"hubs"`
	TopCandidates     []Candidate    `json:"top_candidates"`
}

// ComputeCluster analyzes the labeled subgraph: its connected components,
// labeled accounts with no labeled neighbor, the degree distribution of
// labeled accounts, the top hubs by center score and the strongest
// candidates.
func ComputeCluster(snap *GraphSnapshot, topN int) *ClusterReport {
	labeled := snap.LabeledIDs()
	candidates := snap.Scores()

	report := &ClusterReport{
		TotalAccounts:   len(snap.AccountIDs()),
		TotalEdges:      len(snap.Edges),
		Labeled:         len(labeled),
		Candidates:      len(candidates),
		DegreeHistogram: defaultHistogram(),
	}
	if len(labeled) == 0 {
		return report
	}

	// Components of the subgraph induced by the labeled set
	uf := NewUnionFind(labeled)
	for _, e := range snap.Edges {
		if snap.IsLabeled(e.Author) && snap.IsLabeled(e.Follower) {
			uf.Union(e.Author, e.Follower)
		}
	}
	components := uf.Components()
	report.NumComponents = len(components)
	report.SmallestComponent = len(labeled)
	for _, c := range components {
		report.LargestComponent = max(report.LargestComponent, len(c))
		report.SmallestComponent = min(report.SmallestComponent, len(c))
	}

	centers := snap.CenterScores()
	var isolated []int64
	for _, id := range labeled {
		if centers[id] == 0 {
			isolated = append(isolated, id)
		}
		report.DegreeHistogram[degreeBucket(snap.Degree(id))].Count++
	}
	report.IsolatedCount = len(isolated)
	if len(isolated) > topN {
		isolated = isolated[:topN]
	}
	report.IsolatedIDs = isolated

	hubs := make([]HubAccount, 0, len(labeled))
	for _, id := range labeled {
		hubs = append(hubs, HubAccount{
			AccountID:   id,
			CenterScore: centers[id],
			Weight:      snap.Weights[id],
			InDegree:    len(snap.Followers[id]),
			OutDegree:   len(snap.Friends[id]),
		})
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].CenterScore > hubs[j].CenterScore })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}
	report.Hubs = hubs

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	report.TopCandidates = candidates
	return report
}

func sortComponents(cs [][]int64) {
	sort.Slice(cs, func(i, j int) bool { return cs[i][0] < cs[j][0] })
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
