package analysis

import (
	"reflect"
	"testing"
)

func analysisFixture(pid string, cls ...Cluster) PlaylistAnalysis {
	return PlaylistAnalysis{
		PlaylistID:   pid,
		PlaylistName: "Playlist " + pid,
		Clusters:     cls,
		Moods:        buildMoodIndex(cls),
	}
}

func TestCompareDisjointLabels(t *testing.T) {
	a := analysisFixture("a", Cluster{
		ID: 0, Label: "chill", Size: 5,
		CentroidFeatures: CentroidFeatures{AudioMeans: means(0.2, 0.6, 90)},
	})
	b := analysisFixture("b", Cluster{
		ID: 0, Label: "hype", Size: 7,
		CentroidFeatures: CentroidFeatures{AudioMeans: means(0.9, 0.8, 160)},
	})

	res := Compare([]PlaylistAnalysis{a, b})

	if len(res.SharedLabels) != 0 {
		t.Errorf("SharedLabels = %v, want none", res.SharedLabels)
	}
	wantUnique := map[string][]string{"a": {"chill"}, "b": {"hype"}}
	if !reflect.DeepEqual(res.UniqueLabels, wantUnique) {
		t.Errorf("UniqueLabels = %v, want %v", res.UniqueLabels, wantUnique)
	}
}

func TestComparePresenceMatrix(t *testing.T) {
	a := analysisFixture("a",
		Cluster{ID: 0, Label: "chill", Size: 4, CentroidFeatures: CentroidFeatures{AudioMeans: means(0.2, 0.6, 90)}},
		Cluster{ID: 1, Label: "hype", Size: 2, CentroidFeatures: CentroidFeatures{AudioMeans: means(0.9, 0.8, 160)}},
	)
	b := analysisFixture("b",
		Cluster{ID: 0, Label: "chill", Size: 6, CentroidFeatures: CentroidFeatures{AudioMeans: means(0.25, 0.55, 95)}},
	)

	res := Compare([]PlaylistAnalysis{a, b})

	if want := []string{"chill"}; !reflect.DeepEqual(res.SharedLabels, want) {
		t.Errorf("SharedLabels = %v, want %v", res.SharedLabels, want)
	}
	if want := map[string][]string{"a": {"hype"}}; !reflect.DeepEqual(res.UniqueLabels, want) {
		t.Errorf("UniqueLabels = %v, want %v", res.UniqueLabels, want)
	}

	// Presence records sizes per playlist; absence means no entry at all.
	if got := res.Presence["chill"]; got["a"] != 4 || got["b"] != 6 {
		t.Errorf("Presence[chill] = %v", got)
	}
	hype := res.Presence["hype"]
	if hype["a"] != 2 {
		t.Errorf("Presence[hype][a] = %d, want 2", hype["a"])
	}
	if _, present := hype["b"]; present {
		t.Error("playlist b must be absent from Presence[hype], not zero")
	}

	// Shared labels appear for every compared playlist.
	for _, label := range res.SharedLabels {
		if len(res.Presence[label]) != 2 {
			t.Errorf("shared label %q present in %d playlists, want 2", label, len(res.Presence[label]))
		}
	}
}

func TestCompareWeightedMeans(t *testing.T) {
	a := analysisFixture("a",
		Cluster{ID: 0, Label: "x", Size: 3, CentroidFeatures: CentroidFeatures{AudioMeans: map[string]float64{"energy": 0.8}}},
		Cluster{ID: 1, Label: "y", Size: 1, CentroidFeatures: CentroidFeatures{AudioMeans: map[string]float64{"energy": 0.4}}},
	)

	res := Compare([]PlaylistAnalysis{a})
	got := res.Playlists[0].AudioMeans["energy"]
	want := 0.7 // (3*0.8 + 1*0.4) / 4
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("weighted energy = %v, want %v", got, want)
	}
}

func TestCompareEmptyInput(t *testing.T) {
	res := Compare(nil)
	if len(res.Playlists) != 0 || len(res.Presence) != 0 || len(res.SharedLabels) != 0 || len(res.UniqueLabels) != 0 {
		t.Errorf("Compare(nil) = %+v, want empty summary", res)
	}
}

func TestCompareSingleInputHasNoSets(t *testing.T) {
	a := analysisFixture("a", Cluster{ID: 0, Label: "solo", Size: 2, CentroidFeatures: CentroidFeatures{AudioMeans: means(0.5, 0.5, 120)}})

	res := Compare([]PlaylistAnalysis{a})
	if len(res.SharedLabels) != 0 || len(res.UniqueLabels) != 0 {
		t.Errorf("single playlist produced shared/unique sets: %+v", res)
	}
	if len(res.Playlists) != 1 {
		t.Errorf("expected the profile to still be computed")
	}
}
