package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestExplanationString(t *testing.T) {
	expl := Explanation{
		DominantLabel: "high_energy_sad",
		DistanceScore: 0.87,
		Deviations: []Deviation{
			{Direction: "higher", Feature: "energy", Amount: 23, Unit: "points"},
			{Direction: "lower", Feature: "valence", Amount: 12, Unit: "points"},
			{Direction: "higher", Feature: "tempo", Amount: 18.4, Unit: "BPM"},
		},
	}

	want := "Anomalous vs dominant mood 'high_energy_sad'. distance_score=0.87. " +
		"higher energy by 23 points; lower valence by 12 points; higher tempo by 18.4 BPM"
	if got := expl.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		unit   string
		want   string
	}{
		{name: "points round to integer", v: 51.667, unit: "points", want: "52"},
		{name: "BPM trims trailing zeros", v: 18.4, unit: "BPM", want: "18.4"},
		{name: "BPM keeps two decimals", v: 18.456, unit: "BPM", want: "18.46"},
		{name: "dB whole number", v: 6.0, unit: "dB", want: "6"},
		{name: "dB one decimal", v: 3.25, unit: "dB", want: "3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAmount(tt.v, tt.unit); got != tt.want {
				t.Errorf("formatAmount(%v, %q) = %q, want %q", tt.v, tt.unit, got, tt.want)
			}
		})
	}
}

func TestParseReasonRoundTrip(t *testing.T) {
	expl := Explanation{
		DominantLabel: "medium_energy_neutral",
		DistanceScore: 1.0,
		Deviations: []Deviation{
			{Direction: "lower", Feature: "energy", Amount: 52, Unit: "points"},
			{Direction: "higher", Feature: "tempo", Amount: 57, Unit: "BPM"},
			{Direction: "lower", Feature: "loudness", Amount: 6, Unit: "dB"},
		},
	}

	parsed, err := ParseReason(expl.String())
	if err != nil {
		t.Fatalf("ParseReason() error: %v", err)
	}
	if !reflect.DeepEqual(parsed, expl) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, expl)
	}
}

func TestParseReasonNoClauses(t *testing.T) {
	parsed, err := ParseReason("Anomalous vs dominant mood 'chill'. distance_score=0.91.")
	if err != nil {
		t.Fatalf("ParseReason() error: %v", err)
	}
	if parsed.DominantLabel != "chill" || parsed.DistanceScore != 0.91 || parsed.Deviations != nil {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestParseReasonRejectsBadGrammar(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "missing prefix", in: "higher energy by 10 points"},
		{name: "missing quotes", in: "Anomalous vs dominant mood chill. distance_score=0.91."},
		{name: "bad clause unit", in: "Anomalous vs dominant mood 'chill'. distance_score=0.91. higher energy by 10 furlongs"},
		{name: "bad direction", in: "Anomalous vs dominant mood 'chill'. distance_score=0.91. sideways energy by 10 points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseReason(tt.in); err == nil {
				t.Errorf("ParseReason(%q) succeeded, want error", tt.in)
			}
		})
	}
}

func TestExplainDeviationRanking(t *testing.T) {
	vec := neutralVector("t")
	vec.Audio[dimEnergy] = 0.95   // +0.45 normalized
	vec.Audio[dimTempo] = 177     // +57 BPM, 0.407 normalized
	vec.Audio[dimLoudness] = -16  // -6 dB, 0.3 normalized

	domMeans := make(map[string]float64, NumAudioDims)
	for _, d := range audioDims {
		domMeans[d.name] = d.neutral
	}

	expl := explainDeviation(&vec, domMeans, "medium_energy_neutral", 0.75)
	if expl.DominantLabel != "medium_energy_neutral" || expl.DistanceScore != 0.75 {
		t.Fatalf("header fields wrong: %+v", expl)
	}

	want := []Deviation{
		{Direction: "higher", Feature: "energy", Amount: 45, Unit: "points"},
		{Direction: "higher", Feature: "tempo", Amount: 57, Unit: "BPM"},
		{Direction: "lower", Feature: "loudness", Amount: 6, Unit: "dB"},
	}
	if len(expl.Deviations) != len(want) {
		t.Fatalf("got %d deviations, want %d", len(expl.Deviations), len(want))
	}
	for i := range want {
		got := expl.Deviations[i]
		if got.Direction != want[i].Direction || got.Feature != want[i].Feature || got.Unit != want[i].Unit {
			t.Errorf("deviation %d = %+v, want %+v", i, got, want[i])
		}
		if diff := got.Amount - want[i].Amount; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("deviation %d amount = %v, want %v", i, got.Amount, want[i].Amount)
		}
	}

	s := expl.String()
	if !strings.Contains(s, "higher energy by 45 points") {
		t.Errorf("rendered string missing energy clause: %q", s)
	}
}
