package analysis

import (
	"reflect"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestNormalizeDim(t *testing.T) {
	tests := []struct {
		name string
		dim  int
		v    float64
		want float64
	}{
		{name: "unit feature passes through", dim: dimEnergy, v: 0.42, want: 0.42},
		{name: "loudness midpoint", dim: dimLoudness, v: -10, want: 0.5},
		{name: "loudness below range clamps", dim: dimLoudness, v: -25, want: 0},
		{name: "tempo top of range", dim: dimTempo, v: 200, want: 1},
		{name: "tempo bottom of range", dim: dimTempo, v: 60, want: 0},
		{name: "unit feature above range clamps", dim: dimValence, v: 1.3, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeDim(tt.dim, tt.v)
			if got != tt.want {
				t.Errorf("normalizeDim(%d, %v) = %v, want %v", tt.dim, tt.v, got, tt.want)
			}
		})
	}
}

func TestBuildVectorsImputation(t *testing.T) {
	tracks := []Track{
		{ID: "a", Features: &AudioFeatures{Energy: f(0.9), Danceability: f(0.4)}},
		{ID: "b", Features: &AudioFeatures{Energy: f(0.5), Danceability: f(0.6)}},
		{ID: "c", Features: &AudioFeatures{Energy: f(0.1), Tempo: f(150)}},
	}

	vectors, excl := buildVectors(tracks, 2)
	if len(vectors) != 3 {
		t.Fatalf("len(vectors) = %d, want 3", len(vectors))
	}
	if len(excl.missingAll) != 0 || len(excl.insufficientAudio) != 0 {
		t.Fatalf("unexpected exclusions: %+v", excl)
	}

	// Danceability has 2 observations, so track c gets the playlist mean.
	if got, want := vectors[2].Audio[dimDanceability], 0.5; got != want {
		t.Errorf("imputed danceability = %v, want %v", got, want)
	}
	if !vectors[2].Imputed[dimDanceability] {
		t.Error("danceability should be marked imputed for track c")
	}

	// Tempo has a single observation, so a and b get the neutral default
	// while c keeps its observed value.
	if got, want := vectors[0].Audio[dimTempo], 120.0; got != want {
		t.Errorf("neutral tempo = %v, want %v", got, want)
	}
	if got, want := vectors[2].Audio[dimTempo], 150.0; got != want {
		t.Errorf("observed tempo = %v, want %v", got, want)
	}
	if vectors[2].Imputed[dimTempo] {
		t.Error("observed tempo should not be marked imputed")
	}

	// Observed values are copied verbatim.
	if got, want := vectors[0].Audio[dimEnergy], 0.9; got != want {
		t.Errorf("energy = %v, want %v", got, want)
	}
}

func TestBuildVectorsExclusionBuckets(t *testing.T) {
	tracks := []Track{
		{ID: "audio", Features: &AudioFeatures{Energy: f(0.5)}},
		{ID: "tags-only", Tags: []Tag{{Name: "indie", Weight: 0.8}}},
		{ID: "empty"},
		{ID: "nil-features", Features: &AudioFeatures{}},
	}

	vectors, excl := buildVectors(tracks, 2)
	if len(vectors) != 1 || vectors[0].TrackID != "audio" {
		t.Fatalf("eligible vectors = %+v, want only %q", vectors, "audio")
	}
	if want := []string{"tags-only"}; !reflect.DeepEqual(excl.insufficientAudio, want) {
		t.Errorf("insufficientAudio = %v, want %v", excl.insufficientAudio, want)
	}
	if want := []string{"empty", "nil-features"}; !reflect.DeepEqual(excl.missingAll, want) {
		t.Errorf("missingAll = %v, want %v", excl.missingAll, want)
	}
}

func TestBuildVectorsNoEligible(t *testing.T) {
	vectors, excl := buildVectors([]Track{{ID: "x"}, {ID: "y"}}, 2)
	if vectors != nil {
		t.Errorf("vectors = %v, want nil", vectors)
	}
	if len(excl.missingAll) != 2 {
		t.Errorf("missingAll = %v, want 2 entries", excl.missingAll)
	}
}

func TestBuildVectorsClusterEligibleFlag(t *testing.T) {
	single := []Track{{ID: "a", Features: &AudioFeatures{Energy: f(0.5)}}}
	vectors, _ := buildVectors(single, 2)
	if vectors[0].ClusterEligible {
		t.Error("single eligible track should not be cluster-eligible with min size 2")
	}
	if !vectors[0].AudioEligible {
		t.Error("track with energy should be audio-eligible")
	}
}

func TestCompactTags(t *testing.T) {
	tests := []struct {
		name string
		tags []Tag
		want []Tag
	}{
		{
			name: "nil in nil out",
			tags: nil,
			want: nil,
		},
		{
			name: "sorted by weight descending",
			tags: []Tag{{Name: "rock", Weight: 0.2}, {Name: "pop", Weight: 0.9}},
			want: []Tag{{Name: "pop", Weight: 0.9}, {Name: "rock", Weight: 0.2}},
		},
		{
			name: "weight ties break lexically",
			tags: []Tag{{Name: "zeta", Weight: 0.5}, {Name: "alpha", Weight: 0.5}},
			want: []Tag{{Name: "alpha", Weight: 0.5}, {Name: "zeta", Weight: 0.5}},
		},
		{
			name: "truncated to top eight",
			tags: []Tag{
				{Name: "a", Weight: 0.9}, {Name: "b", Weight: 0.8}, {Name: "c", Weight: 0.7},
				{Name: "d", Weight: 0.6}, {Name: "e", Weight: 0.5}, {Name: "f", Weight: 0.4},
				{Name: "g", Weight: 0.3}, {Name: "h", Weight: 0.2}, {Name: "i", Weight: 0.1},
			},
			want: []Tag{
				{Name: "a", Weight: 0.9}, {Name: "b", Weight: 0.8}, {Name: "c", Weight: 0.7},
				{Name: "d", Weight: 0.6}, {Name: "e", Weight: 0.5}, {Name: "f", Weight: 0.4},
				{Name: "g", Weight: 0.3}, {Name: "h", Weight: 0.2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compactTags(tt.tags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("compactTags() = %v, want %v", got, tt.want)
			}
		})
	}
}
