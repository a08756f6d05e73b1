package analysis

import "strconv"

// Semantic label thresholds, applied to min-max-normalized centroid values.
const (
	labelHighThreshold = 0.66
	labelLowThreshold  = 0.33
	labelFastThreshold = 0.6
)

// moodLabel maps a cluster's centroid audio means to a semantic label such
// as "high_energy_sad_fast": an energy bucket, a valence bucket, and a tempo
// qualifier when the normalized tempo is high.
func moodLabel(means map[string]float64) string {
	energy := normalizeDim(dimEnergy, means["energy"])
	valence := normalizeDim(dimValence, means["valence"])
	tempo := normalizeDim(dimTempo, means["tempo"])

	var label string
	switch {
	case energy >= labelHighThreshold:
		label = "high_energy"
	case energy <= labelLowThreshold:
		label = "low_energy"
	default:
		label = "medium_energy"
	}

	switch {
	case valence >= labelHighThreshold:
		label += "_happy"
	case valence <= labelLowThreshold:
		label += "_sad"
	default:
		label += "_neutral"
	}

	if tempo > labelFastThreshold {
		label += "_fast"
	}
	return label
}

// labelClusters assigns mood labels in cluster-id order. When two clusters in
// the same playlist land on the same label, the first keeps it and later ones
// get a numeric suffix ("_2", "_3", ...).
func labelClusters(clusters []Cluster) {
	seen := make(map[string]int, len(clusters))
	for i := range clusters {
		label := moodLabel(clusters[i].CentroidFeatures.AudioMeans)
		seen[label]++
		if n := seen[label]; n > 1 {
			label += "_" + strconv.Itoa(n)
		}
		clusters[i].Label = label
	}
}
