package analysis

import (
	"sort"

	"github.com/muesli/clusters"
)

// Audio dimension indices. The order is fixed and shared by feature vectors,
// centroids and explanation ranking.
const (
	dimAcousticness = iota
	dimDanceability
	dimEnergy
	dimInstrumentalness
	dimLiveness
	dimLoudness
	dimSpeechiness
	dimTempo
	dimValence

	// NumAudioDims is the fixed dimensionality of the audio subspace.
	NumAudioDims = 9
)

// audioDim describes one audio dimension: its natural domain range, the
// neutral midpoint used when a playlist cannot support mean imputation, and
// the unit used when rendering deviations.
type audioDim struct {
	name    string
	min     float64
	max     float64
	neutral float64
	unit    string // "points", "BPM" or "dB"
}

// audioDims uses the documented domain ranges: unit-interval features [0,1],
// loudness [-20,0] dB, tempo [60,200] BPM.
var audioDims = [NumAudioDims]audioDim{
	{name: "acousticness", min: 0, max: 1, neutral: 0.5, unit: "points"},
	{name: "danceability", min: 0, max: 1, neutral: 0.5, unit: "points"},
	{name: "energy", min: 0, max: 1, neutral: 0.5, unit: "points"},
	{name: "instrumentalness", min: 0, max: 1, neutral: 0.5, unit: "points"},
	{name: "liveness", min: 0, max: 1, neutral: 0.5, unit: "points"},
	{name: "loudness", min: -20, max: 0, neutral: -10, unit: "dB"},
	{name: "speechiness", min: 0, max: 1, neutral: 0.5, unit: "points"},
	{name: "tempo", min: 60, max: 200, neutral: 120, unit: "BPM"},
	{name: "valence", min: 0, max: 1, neutral: 0.5, unit: "points"},
}

// DimNames returns the audio dimension names in vector order.
func DimNames() []string {
	names := make([]string, NumAudioDims)
	for i, d := range audioDims {
		names[i] = d.name
	}
	return names
}

// normalizeDim maps a raw value into [0,1] using the dimension's domain
// range, clamping out-of-range inputs.
func normalizeDim(i int, v float64) float64 {
	d := audioDims[i]
	n := (v - d.min) / (d.max - d.min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// FeatureVector is the fixed-order numeric encoding of one track, built once
// per analysis run and discarded after scoring.
type FeatureVector struct {
	TrackID string
	Title   string

	// Audio holds raw-unit values for every dimension, imputed where the
	// source was missing one.
	Audio [NumAudioDims]float64

	// Imputed marks dimensions that were filled in rather than observed.
	Imputed [NumAudioDims]bool

	// TopTags is the track's tag set compacted to the heaviest entries.
	TopTags []Tag

	AudioEligible   bool
	ClusterEligible bool
}

// coords returns the vector's position in min-max-normalized audio space,
// the only space distances are computed in.
func (v *FeatureVector) coords() clusters.Coordinates {
	c := make(clusters.Coordinates, NumAudioDims)
	for i, raw := range v.Audio {
		c[i] = normalizeDim(i, raw)
	}
	return c
}

// maxTopTags is the tag compaction bound (top-N by weight).
const maxTopTags = 8

// compactTags keeps the heaviest maxTopTags tags, breaking weight ties by
// lexical tag name so repeated runs order identically.
func compactTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight > sorted[j].Weight
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > maxTopTags {
		sorted = sorted[:maxTopTags]
	}
	return sorted
}

// exclusion buckets reported by the vector builder.
type exclusions struct {
	// missingAll lists tracks with zero audio dimensions and no tags.
	missingAll []string
	// insufficientAudio lists tracks with zero audio dimensions that still
	// carry tags; they cannot support audio clustering but are not empty.
	insufficientAudio []string
}

// buildVectors turns a playlist's tracks into feature vectors for every
// audio-eligible track and sorts the ineligible remainder into exclusion
// buckets. Absent dimensions are imputed with the playlist mean when at
// least two tracks carry the dimension, else with the domain-neutral
// default.
func buildVectors(tracks []Track, minClusterSize int) ([]FeatureVector, exclusions) {
	var excl exclusions
	eligible := make([]*Track, 0, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if t.hasAnyAudio() {
			eligible = append(eligible, t)
			continue
		}
		if len(t.Tags) > 0 {
			excl.insufficientAudio = append(excl.insufficientAudio, t.ID)
		} else {
			excl.missingAll = append(excl.missingAll, t.ID)
		}
	}
	if len(eligible) == 0 {
		return nil, excl
	}

	// Per-dimension playlist means over tracks that carry the dimension.
	var sums [NumAudioDims]float64
	var counts [NumAudioDims]int
	for _, t := range eligible {
		for i := 0; i < NumAudioDims; i++ {
			if v, ok := t.dimValue(i); ok {
				sums[i] += v
				counts[i]++
			}
		}
	}

	clusterEligible := len(eligible) >= minClusterSize
	vectors := make([]FeatureVector, len(eligible))
	for vi, t := range eligible {
		fv := FeatureVector{
			TrackID:         t.ID,
			Title:           t.Title,
			TopTags:         compactTags(t.Tags),
			AudioEligible:   true,
			ClusterEligible: clusterEligible,
		}
		for i := 0; i < NumAudioDims; i++ {
			if v, ok := t.dimValue(i); ok {
				fv.Audio[i] = v
				continue
			}
			fv.Imputed[i] = true
			if counts[i] >= 2 {
				fv.Audio[i] = sums[i] / float64(counts[i])
			} else {
				fv.Audio[i] = audioDims[i].neutral
			}
		}
		vectors[vi] = fv
	}
	return vectors, excl
}
