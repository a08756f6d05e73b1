package analysis

import "sort"

// PlaylistProfile is one playlist's representative feature vector for
// side-by-side display: each audio dimension averaged across clusters,
// weighted by cluster size.
type PlaylistProfile struct {
	PlaylistID   string             `json:"playlist_id"`
	PlaylistName string             `json:"playlist_name"`
	AudioMeans   map[string]float64 `json:"audio_means"`
}

// ComparisonResult aggregates previously computed analyses; no new distance
// computation happens here.
type ComparisonResult struct {
	Playlists []PlaylistProfile `json:"playlists"`

	// Presence maps mood label -> playlist id -> cluster size. A playlist
	// absent from a label's inner map does not contain that mood; zero is
	// never used to mean "not present".
	Presence map[string]map[string]int `json:"presence"`

	// SharedLabels are present in every compared playlist, sorted.
	SharedLabels []string `json:"shared_labels"`

	// UniqueLabels maps playlist id -> labels present only there, sorted.
	UniqueLabels map[string][]string `json:"unique_labels"`
}

// Compare summarizes mood overlap and divergence across playlists. Zero or
// one input yields an empty summary for the set fields; it is not an error.
func Compare(results []PlaylistAnalysis) ComparisonResult {
	out := ComparisonResult{
		Presence:     make(map[string]map[string]int),
		UniqueLabels: make(map[string][]string),
	}
	if len(results) == 0 {
		return out
	}

	for ri := range results {
		res := &results[ri]
		profile := PlaylistProfile{
			PlaylistID:   res.PlaylistID,
			PlaylistName: res.PlaylistName,
			AudioMeans:   weightedAudioMeans(res.Clusters),
		}
		out.Playlists = append(out.Playlists, profile)

		for _, c := range res.Clusters {
			byPlaylist := out.Presence[c.Label]
			if byPlaylist == nil {
				byPlaylist = make(map[string]int)
				out.Presence[c.Label] = byPlaylist
			}
			byPlaylist[res.PlaylistID] += c.Size
		}
	}

	if len(results) < 2 {
		return out
	}

	for label, byPlaylist := range out.Presence {
		switch len(byPlaylist) {
		case len(results):
			out.SharedLabels = append(out.SharedLabels, label)
		case 1:
			for pid := range byPlaylist {
				out.UniqueLabels[pid] = append(out.UniqueLabels[pid], label)
			}
		}
	}
	sort.Strings(out.SharedLabels)
	for pid := range out.UniqueLabels {
		sort.Strings(out.UniqueLabels[pid])
	}
	return out
}

// weightedAudioMeans averages cluster centroid values weighted by cluster
// size, in raw feature units.
func weightedAudioMeans(cls []Cluster) map[string]float64 {
	if len(cls) == 0 {
		return nil
	}
	sums := make(map[string]float64, NumAudioDims)
	total := 0
	for _, c := range cls {
		for name, v := range c.CentroidFeatures.AudioMeans {
			sums[name] += v * float64(c.Size)
		}
		total += c.Size
	}
	if total == 0 {
		return nil
	}
	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		means[name] = sum / float64(total)
	}
	return means
}
