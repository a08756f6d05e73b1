package analysis

import (
	"math"
	"sort"

	"github.com/muesli/clusters"
)

// AnomalyRecord scores one eligible track's deviation from the playlist's
// dominant mood. Reason is empty unless the track is flagged.
type AnomalyRecord struct {
	TrackID      string  `json:"track_id"`
	Title        string  `json:"title,omitempty"`
	ClusterID    int     `json:"cluster_id"`
	AnomalyScore float64 `json:"anomaly_score"`
	IsAnomaly    bool    `json:"is_anomaly"`
	Reason       string  `json:"reason,omitempty"`
}

// dominantCluster returns the id of the largest cluster, ties going to the
// lowest id. Clusters are ordered by dense id already.
func dominantCluster(cls []Cluster) int {
	dom := 0
	for i := 1; i < len(cls); i++ {
		if cls[i].Size > cls[dom].Size {
			dom = i
		}
	}
	return dom
}

// percentileCutoff returns the nearest-rank percentile of the given scores.
func percentileCutoff(scores []float64, percentile float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	rank := int(math.Ceil(percentile / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// scoreAnomalies measures every track against the dominant cluster's
// centroid, not its own cluster's, so a whole minority cluster can score as
// anomalous relative to the playlist's prevailing style. Raw Euclidean
// distances in normalized space are rescaled so the farthest track scores
// exactly 1; a playlist with zero spread short-circuits to all-zero scores
// and no flags rather than dividing by zero.
func scoreAnomalies(vectors []FeatureVector, assignment []int, domCentroid clusters.Coordinates, percentile float64) ([]AnomalyRecord, float64) {
	n := len(vectors)
	dists := make([]float64, n)
	maxDist := 0.0
	for i := range vectors {
		d := math.Sqrt(vectors[i].coords().Distance(domCentroid))
		dists[i] = d
		if d > maxDist {
			maxDist = d
		}
	}

	scores := make([]float64, n)
	if maxDist > 0 {
		for i, d := range dists {
			scores[i] = d / maxDist
		}
	}

	cutoff := percentileCutoff(scores, percentile)

	records := make([]AnomalyRecord, n)
	for i := range vectors {
		records[i] = AnomalyRecord{
			TrackID:      vectors[i].TrackID,
			Title:        vectors[i].Title,
			ClusterID:    assignment[i],
			AnomalyScore: scores[i],
			IsAnomaly:    maxDist > 0 && scores[i] >= cutoff,
		}
	}
	return records, cutoff
}
