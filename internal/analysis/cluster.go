package analysis

import (
	"math"
	"sort"

	"github.com/muesli/clusters"
)

// CentroidFeatures summarizes a cluster center in raw feature units plus the
// tag profile of its members.
type CentroidFeatures struct {
	AudioMeans map[string]float64 `json:"audio_means"`
	TopTags    []string           `json:"top_tags"`
	TagWeights map[string]float64 `json:"tag_weights_top"`
}

// Cluster is one mood group. IDs are dense integers starting at 0 within a
// playlist and stable for the run; the struct is read-only once built.
type Cluster struct {
	ID                     int              `json:"cluster_id"`
	Label                  string           `json:"label"`
	Size                   int              `json:"size"`
	CentroidFeatures       CentroidFeatures `json:"centroid_features"`
	MemberTrackIDs         []string         `json:"member_track_ids"`
	RepresentativeTrackIDs []string         `json:"representative_track_ids,omitempty"`
}

// vectorObservation wraps a FeatureVector to implement clusters.Observation.
type vectorObservation struct {
	vec    *FeatureVector
	coords clusters.Coordinates
}

func (o vectorObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o vectorObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// chooseK adapts cluster count to playlist size:
// clamp(round(sqrt(n/2)), 2, 12) for n >= 4, otherwise a single cluster.
func chooseK(n int) int {
	if n < 4 {
		return 1
	}
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 2 {
		k = 2
	}
	if k > 12 {
		k = 12
	}
	return k
}

// partitionResult carries the converged partition plus the normalized-space
// centroids the anomaly stage scores against.
type partitionResult struct {
	clusters   []Cluster
	assignment []int // vector index -> cluster id
	centroids  []clusters.Coordinates
}

// farthestPointSeeds picks k deterministic initial centers. Vectors are
// visited in ascending track-ID order: the first seed is the lowest track ID,
// each later seed maximizes its distance to the nearest already-chosen seed,
// ties going to the earlier position.
func farthestPointSeeds(obs []vectorObservation, order []int, k int) []int {
	seeds := make([]int, 0, k)
	seeds = append(seeds, order[0])

	minDist := make([]float64, len(obs))
	for _, i := range order {
		minDist[i] = obs[i].Distance(obs[seeds[0]].coords)
	}

	for len(seeds) < k {
		best := -1
		bestDist := -1.0
		for _, i := range order {
			if minDist[i] > bestDist {
				best = i
				bestDist = minDist[i]
			}
		}
		seeds = append(seeds, best)
		for _, i := range order {
			if d := obs[i].Distance(obs[best].coords); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return seeds
}

// partition runs Lloyd iterations over the normalized audio subspace until
// assignments stop changing or the iteration cap is hit. Assignment ties go
// to the lower cluster index (clusters.Nearest keeps the first minimum).
func partition(vectors []FeatureVector, k, maxIterations int) ([]int, clusters.Clusters) {
	n := len(vectors)
	obs := make([]vectorObservation, n)
	for i := range vectors {
		obs[i] = vectorObservation{vec: &vectors[i], coords: vectors[i].coords()}
	}

	// Seeding order is by track ID, independent of playlist order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return vectors[order[a]].TrackID < vectors[order[b]].TrackID
	})

	if k > n {
		k = n
	}
	seeds := farthestPointSeeds(obs, order, k)

	cls := make(clusters.Clusters, k)
	for i, s := range seeds {
		cls[i].Center = append(clusters.Coordinates{}, obs[s].coords...)
	}

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		cls.Reset()
		changed := false
		for i := range obs {
			ci := cls.Nearest(obs[i])
			if ci != assignment[i] {
				changed = true
				assignment[i] = ci
			}
			cls[ci].Append(obs[i])
		}
		if !changed {
			break
		}
		cls.Recenter()
	}
	return assignment, cls
}

// buildClusters converges a partition and assembles the read-only Cluster
// records: dense ids (empty clusters compacted away), raw-unit centroid
// means, aggregated top tags and representative members.
func buildClusters(vectors []FeatureVector, cfg Config) partitionResult {
	k := chooseK(len(vectors))
	assignment, cls := partition(vectors, k, cfg.MaxIterations)

	// Compact empty clusters so ids stay dense.
	remap := make([]int, len(cls))
	dense := 0
	for i := range cls {
		if len(cls[i].Observations) == 0 {
			remap[i] = -1
			continue
		}
		remap[i] = dense
		dense++
	}
	for i := range assignment {
		assignment[i] = remap[assignment[i]]
	}

	res := partitionResult{
		clusters:   make([]Cluster, dense),
		assignment: assignment,
		centroids:  make([]clusters.Coordinates, dense),
	}

	members := make([][]int, dense) // vector indices per dense cluster id
	for i, cid := range assignment {
		members[cid] = append(members[cid], i)
	}
	for i := range cls {
		if remap[i] >= 0 {
			res.centroids[remap[i]] = cls[i].Center
		}
	}

	for cid, idxs := range members {
		c := Cluster{ID: cid, Size: len(idxs)}
		var sums [NumAudioDims]float64
		for _, vi := range idxs {
			c.MemberTrackIDs = append(c.MemberTrackIDs, vectors[vi].TrackID)
			for d := 0; d < NumAudioDims; d++ {
				sums[d] += vectors[vi].Audio[d]
			}
		}
		means := make(map[string]float64, NumAudioDims)
		for d := 0; d < NumAudioDims; d++ {
			means[audioDims[d].name] = sums[d] / float64(len(idxs))
		}
		names, weights := clusterTags(vectors, idxs)
		c.CentroidFeatures = CentroidFeatures{
			AudioMeans: means,
			TopTags:    names,
			TagWeights: weights,
		}
		c.RepresentativeTrackIDs = representativeMembers(vectors, idxs, res.centroids[cid], cfg.MaxSeedTracks)
		res.clusters[cid] = c
	}

	labelClusters(res.clusters)
	return res
}

// clusterTags aggregates member tag weights into the cluster's top-tag
// profile: mean weight over cluster size, ties by lexical tag name.
func clusterTags(vectors []FeatureVector, idxs []int) ([]string, map[string]float64) {
	sums := make(map[string]float64)
	for _, vi := range idxs {
		for _, tag := range vectors[vi].TopTags {
			sums[tag.Name] += tag.Weight
		}
	}
	if len(sums) == 0 {
		return nil, nil
	}

	type tagWeight struct {
		name   string
		weight float64
	}
	weights := make([]tagWeight, 0, len(sums))
	for name, sum := range sums {
		weights = append(weights, tagWeight{name: name, weight: sum / float64(len(idxs))})
	}
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].weight != weights[j].weight {
			return weights[i].weight > weights[j].weight
		}
		return weights[i].name < weights[j].name
	})
	if len(weights) > maxTopTags {
		weights = weights[:maxTopTags]
	}

	names := make([]string, len(weights))
	top := make(map[string]float64, len(weights))
	for i, w := range weights {
		names[i] = w.name
		top[w.name] = w.weight
	}
	return names, top
}

// representativeMembers returns up to limit member track IDs closest to the
// cluster centroid, ties broken by track ID.
func representativeMembers(vectors []FeatureVector, idxs []int, centroid clusters.Coordinates, limit int) []string {
	if limit <= 0 {
		return nil
	}
	type memberDist struct {
		id   string
		dist float64
	}
	dists := make([]memberDist, len(idxs))
	for i, vi := range idxs {
		dists[i] = memberDist{
			id:   vectors[vi].TrackID,
			dist: vectors[vi].coords().Distance(centroid),
		}
	}
	sort.Slice(dists, func(i, j int) bool {
		if dists[i].dist != dists[j].dist {
			return dists[i].dist < dists[j].dist
		}
		return dists[i].id < dists[j].id
	})
	if len(dists) > limit {
		dists = dists[:limit]
	}
	ids := make([]string, len(dists))
	for i, d := range dists {
		ids[i] = d.id
	}
	return ids
}
