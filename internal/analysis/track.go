// Package analysis implements the playlist mood analysis engine: feature
// vector building, mood clustering, anomaly scoring, deviation explanations,
// cross-playlist comparison, and recommendation context construction.
package analysis

import "time"

// Artist identifies a performing artist on a track.
type Artist struct {
	Name      string `json:"name"`
	SpotifyID string `json:"spotify_id,omitempty"`
}

// Tag is a weighted social tag attached to a track. Weights are non-negative
// and need not sum to 1 across a track's tags.
type Tag struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// AudioFeatures holds the per-track audio dimensions. Each field is nil when
// the upstream provider did not return that dimension.
type AudioFeatures struct {
	Acousticness     *float64 `json:"acousticness,omitempty"`
	Danceability     *float64 `json:"danceability,omitempty"`
	Energy           *float64 `json:"energy,omitempty"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty"`
	Liveness         *float64 `json:"liveness,omitempty"`
	Loudness         *float64 `json:"loudness,omitempty"`
	Speechiness      *float64 `json:"speechiness,omitempty"`
	Tempo            *float64 `json:"tempo,omitempty"`
	Valence          *float64 `json:"valence,omitempty"`
}

// Track is one playlist entry with its metadata, optional audio features and
// optional weighted tags. Tracks are immutable once handed to the engine.
type Track struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Artists  []Artist       `json:"artists,omitempty"`
	Album    string         `json:"album,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
	Features *AudioFeatures `json:"audio_features,omitempty"`
	Tags     []Tag          `json:"tags,omitempty"`
}

// Playlist is the unit of analysis: a named, ordered set of tracks already
// materialized by the ingestion layer.
type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// dimValue returns the track's raw value for an audio dimension index, or
// false when that dimension is absent.
func (t *Track) dimValue(i int) (float64, bool) {
	if t.Features == nil {
		return 0, false
	}
	var p *float64
	switch i {
	case dimAcousticness:
		p = t.Features.Acousticness
	case dimDanceability:
		p = t.Features.Danceability
	case dimEnergy:
		p = t.Features.Energy
	case dimInstrumentalness:
		p = t.Features.Instrumentalness
	case dimLiveness:
		p = t.Features.Liveness
	case dimLoudness:
		p = t.Features.Loudness
	case dimSpeechiness:
		p = t.Features.Speechiness
	case dimTempo:
		p = t.Features.Tempo
	case dimValence:
		p = t.Features.Valence
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// hasAnyAudio reports whether at least one audio dimension is present.
func (t *Track) hasAnyAudio() bool {
	for i := 0; i < NumAudioDims; i++ {
		if _, ok := t.dimValue(i); ok {
			return true
		}
	}
	return false
}
