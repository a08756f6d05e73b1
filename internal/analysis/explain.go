package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// explainTopDeviations is how many feature deviations a reason string names.
const explainTopDeviations = 3

// Deviation is one parsed clause of a reason string: direction, feature name,
// magnitude and natural unit.
type Deviation struct {
	Direction string  `json:"direction"`
	Feature   string  `json:"feature"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
}

// Explanation is the structured form of a reason string. The rendered string
// and this struct carry the same content; downstream consumers may use
// either.
type Explanation struct {
	DominantLabel string      `json:"dominant_label"`
	DistanceScore float64     `json:"distance_score"`
	Deviations    []Deviation `json:"deviations"`
}

// String renders the explanation in the fixed grammar consumed by text and
// chat collaborators:
//
//	Anomalous vs dominant mood '<label>'. distance_score=<s>. <dir> <feature> by <amount> <unit>; ...
//
// Unit-interval features render as integer percentage points; tempo and
// loudness render in BPM and dB with at most two decimals.
func (e Explanation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Anomalous vs dominant mood '%s'. distance_score=%.2f.", e.DominantLabel, e.DistanceScore)
	for i, d := range e.Deviations {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s %s by %s %s", d.Direction, d.Feature, formatAmount(d.Amount, d.Unit), d.Unit)
	}
	return b.String()
}

// formatAmount renders a magnitude in its unit's precision: whole points for
// unit-interval features, up to two decimals (trailing zeros trimmed) for
// BPM and dB.
func formatAmount(v float64, unit string) string {
	if unit == "points" {
		return strconv.Itoa(int(math.Round(v)))
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// explainDeviation builds the explanation for one flagged track: signed raw
// deltas against the dominant centroid, ranked by absolute magnitude in
// normalized space, top three rendered in natural units.
func explainDeviation(vec *FeatureVector, domMeans map[string]float64, domLabel string, score float64) Explanation {
	type dimDelta struct {
		dim      int
		raw      float64 // track - dominant centroid, raw units
		normaMag float64
	}
	deltas := make([]dimDelta, NumAudioDims)
	for i := 0; i < NumAudioDims; i++ {
		dom := domMeans[audioDims[i].name]
		deltas[i] = dimDelta{
			dim:      i,
			raw:      vec.Audio[i] - dom,
			normaMag: math.Abs(normalizeDim(i, vec.Audio[i]) - normalizeDim(i, dom)),
		}
	}
	// Stable sort keeps the fixed dimension order on equal magnitudes.
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].normaMag > deltas[j].normaMag
	})

	expl := Explanation{DominantLabel: domLabel, DistanceScore: score}
	for _, d := range deltas[:explainTopDeviations] {
		dir := "lower"
		if d.raw > 0 {
			dir = "higher"
		}
		unit := audioDims[d.dim].unit
		amount := math.Abs(d.raw)
		if unit == "points" {
			amount *= 100 // unit interval -> percentage points
		}
		expl.Deviations = append(expl.Deviations, Deviation{
			Direction: dir,
			Feature:   audioDims[d.dim].name,
			Amount:    amount,
			Unit:      unit,
		})
	}
	return expl
}

var (
	reasonPrefixRe = regexp.MustCompile(`^Anomalous vs dominant mood '([^']+)'\. distance_score=(\d+(?:\.\d+)?)\.(?: (.+))?$`)
	reasonClauseRe = regexp.MustCompile(`^(higher|lower) ([a-z]+) by (\d+(?:\.\d+)?) (points|BPM|dB)$`)
)

// ParseReason inverts Explanation.String. It accepts exactly the grammar the
// generator emits and rejects anything else, keeping the two sides of the
// contract honest.
func ParseReason(s string) (Explanation, error) {
	m := reasonPrefixRe.FindStringSubmatch(s)
	if m == nil {
		return Explanation{}, fmt.Errorf("reason does not match grammar: %q", s)
	}
	score, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Explanation{}, fmt.Errorf("parsing distance_score: %w", err)
	}
	expl := Explanation{DominantLabel: m[1], DistanceScore: score}

	if m[3] != "" {
		for _, clause := range strings.Split(m[3], "; ") {
			cm := reasonClauseRe.FindStringSubmatch(clause)
			if cm == nil {
				return Explanation{}, fmt.Errorf("reason clause does not match grammar: %q", clause)
			}
			amount, err := strconv.ParseFloat(cm[3], 64)
			if err != nil {
				return Explanation{}, fmt.Errorf("parsing deviation amount: %w", err)
			}
			expl.Deviations = append(expl.Deviations, Deviation{
				Direction: cm[1],
				Feature:   cm[2],
				Amount:    amount,
				Unit:      cm[4],
			})
		}
	}
	return expl, nil
}
