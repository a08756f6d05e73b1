package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Input errors. These surface immediately to the caller with no partial
// result; everything else the engine reports as a valid degenerate result or
// a per-playlist failure inside a batch.
var (
	ErrNoPlaylists    = errors.New("no playlists supplied")
	ErrEmptyTrackList = errors.New("playlist has no tracks")
	ErrMalformedTrack = errors.New("malformed track")
)

// Config holds the engine tunables. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// CutoffPercentile of the anomaly score distribution at or above which
	// tracks are flagged.
	CutoffPercentile float64
	// MinClusterSize is the minimum number of audio-eligible tracks needed
	// to attempt clustering; below it the playlist degenerates to a single
	// cluster with no anomaly scoring.
	MinClusterSize int
	// MaxIterations caps the clustering assignment/update loop.
	MaxIterations int
	// MaxSeedTracks bounds representative members per cluster in
	// recommendation payloads.
	MaxSeedTracks int
	// MaxConcurrency bounds parallel per-playlist workers in a batch.
	MaxConcurrency int
	// PlaylistTimeout aborts a single playlist's analysis without affecting
	// its siblings. Zero disables the timeout.
	PlaylistTimeout time.Duration
}

// DefaultConfig returns the recommended engine configuration.
func DefaultConfig() Config {
	return Config{
		CutoffPercentile: 85,
		MinClusterSize:   2,
		MaxIterations:    50,
		MaxSeedTracks:    5,
		MaxConcurrency:   4,
		PlaylistTimeout:  30 * time.Second,
	}
}

// Summary is the per-playlist accounting block. The invariant
// num_tracks = num_eligible + num_excluded_missing_all +
// num_excluded_insufficient_audio_cluster always holds.
type Summary struct {
	NumTracks                    int      `json:"num_tracks"`
	NumEligible                  int      `json:"num_eligible"`
	NumExcludedMissingAll        int      `json:"num_excluded_missing_all"`
	NumExcludedInsufficientAudio int      `json:"num_excluded_insufficient_audio_cluster"`
	NumClusters                  int      `json:"num_clusters"`
	NumAnomalies                 int      `json:"num_anomalies"`
	AnomalyScoreCutoff           *float64 `json:"anomaly_score_cutoff"`
	DominantClusterID            *int     `json:"dominant_cluster_id,omitempty"`
	ExcludedTrackIDs             []string `json:"excluded_track_ids,omitempty"`
}

// PlaylistAnalysis is one playlist's full analysis: every eligible track
// appears in exactly one cluster and, outside the degenerate single-cluster
// path, has exactly one anomaly record.
type PlaylistAnalysis struct {
	PlaylistID   string               `json:"playlist_id"`
	PlaylistName string               `json:"playlist_name"`
	Clusters     []Cluster            `json:"clusters"`
	Anomalies    []AnomalyRecord      `json:"anomalies"`
	Moods        map[string]MoodEntry `json:"moods,omitempty"`
	Summary      Summary              `json:"summary"`
}

// PlaylistFailure reports a playlist that could not be analyzed inside a
// batch. Sibling playlists are unaffected.
type PlaylistFailure struct {
	PlaylistID string `json:"playlist_id"`
	Error      string `json:"error"`
}

// BatchResult aggregates a multi-playlist run.
type BatchResult struct {
	Playlists []PlaylistAnalysis `json:"playlists"`
	Failures  []PlaylistFailure  `json:"failures,omitempty"`
}

// Analyzer runs the mood analysis pipeline. It is stateless across runs and
// safe for concurrent use.
type Analyzer struct {
	cfg Config
	log zerolog.Logger
}

// New returns an Analyzer with zero config fields replaced by defaults.
func New(cfg Config, log zerolog.Logger) *Analyzer {
	def := DefaultConfig()
	if cfg.CutoffPercentile <= 0 || cfg.CutoffPercentile > 100 {
		cfg.CutoffPercentile = def.CutoffPercentile
	}
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = def.MinClusterSize
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.MaxSeedTracks <= 0 {
		cfg.MaxSeedTracks = def.MaxSeedTracks
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	return &Analyzer{cfg: cfg, log: log}
}

// validatePlaylist enforces the input contract: a non-empty track list with
// unique, non-empty track ids.
func validatePlaylist(p Playlist) error {
	if len(p.Tracks) == 0 {
		return ErrEmptyTrackList
	}
	seen := make(map[string]struct{}, len(p.Tracks))
	for i := range p.Tracks {
		id := p.Tracks[i].ID
		if id == "" {
			return fmt.Errorf("track %d has empty id: %w", i, ErrMalformedTrack)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate track id %q: %w", id, ErrMalformedTrack)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// AnalyzePlaylist runs the full pipeline for one playlist: feature vectors,
// clustering, anomaly scoring and explanations. Playlists with zero eligible
// tracks yield a valid degenerate result, not an error.
func (a *Analyzer) AnalyzePlaylist(ctx context.Context, p Playlist) (*PlaylistAnalysis, error) {
	if err := validatePlaylist(p); err != nil {
		return nil, fmt.Errorf("playlist %q: %w", p.ID, err)
	}

	// Run ids exist for log correlation only; results stay byte-identical
	// across reruns on the same input.
	log := a.log.With().Str("playlist_id", p.ID).Str("run_id", uuid.New().String()[:8]).Logger()
	start := time.Now()

	vectors, excl := buildVectors(p.Tracks, a.cfg.MinClusterSize)
	excluded := append(append([]string{}, excl.missingAll...), excl.insufficientAudio...)

	out := &PlaylistAnalysis{
		PlaylistID:   p.ID,
		PlaylistName: p.Name,
		Summary: Summary{
			NumTracks:                    len(p.Tracks),
			NumEligible:                  len(vectors),
			NumExcludedMissingAll:        len(excl.missingAll),
			NumExcludedInsufficientAudio: len(excl.insufficientAudio),
			ExcludedTrackIDs:             excluded,
		},
	}

	if len(vectors) == 0 {
		log.Info().Int("num_tracks", len(p.Tracks)).Msg("no eligible tracks, returning degenerate result")
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("playlist %q: %w", p.ID, err)
	}

	part := buildClusters(vectors, a.cfg)
	out.Clusters = part.clusters
	out.Summary.NumClusters = len(part.clusters)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("playlist %q: %w", p.ID, err)
	}

	// Below the clustering minimum the single-cluster result stands on its
	// own: anomaly scoring is skipped and the cutoff stays unset.
	if len(vectors) >= a.cfg.MinClusterSize {
		dom := dominantCluster(part.clusters)
		out.Summary.DominantClusterID = &dom

		records, cutoff := scoreAnomalies(vectors, part.assignment, part.centroids[dom], a.cfg.CutoffPercentile)
		domCluster := part.clusters[dom]
		for i := range records {
			if !records[i].IsAnomaly {
				continue
			}
			expl := explainDeviation(&vectors[i], domCluster.CentroidFeatures.AudioMeans, domCluster.Label, records[i].AnomalyScore)
			records[i].Reason = expl.String()
			out.Summary.NumAnomalies++
		}
		out.Anomalies = records
		out.Summary.AnomalyScoreCutoff = &cutoff
	}

	out.Moods = buildMoodIndex(out.Clusters)

	log.Info().
		Int("num_tracks", len(p.Tracks)).
		Int("num_eligible", len(vectors)).
		Int("num_clusters", out.Summary.NumClusters).
		Int("num_anomalies", out.Summary.NumAnomalies).
		Dur("elapsed", time.Since(start)).
		Msg("playlist analysis complete")
	return out, nil
}

// AnalyzeBatch analyzes playlists in parallel, bounded by MaxConcurrency.
// A single playlist's failure or timeout is reported in Failures and never
// aborts its siblings; an empty input is the only batch-level error.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, playlists []Playlist) (*BatchResult, error) {
	if len(playlists) == 0 {
		return nil, ErrNoPlaylists
	}

	results := make([]*PlaylistAnalysis, len(playlists))
	failures := make([]error, len(playlists))

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrency)
	for i := range playlists {
		i := i
		g.Go(func() error {
			pctx := ctx
			if a.cfg.PlaylistTimeout > 0 {
				var cancel context.CancelFunc
				pctx, cancel = context.WithTimeout(ctx, a.cfg.PlaylistTimeout)
				defer cancel()
			}
			res, err := a.AnalyzePlaylist(pctx, playlists[i])
			if err != nil {
				a.log.Warn().Str("playlist_id", playlists[i].ID).Err(err).Msg("playlist analysis failed")
				failures[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Workers never return errors; failures are collected per slot.
	_ = g.Wait()

	batch := &BatchResult{}
	for i := range playlists {
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, PlaylistFailure{
				PlaylistID: playlists[i].ID,
				Error:      failures[i].Error(),
			})
			continue
		}
		batch.Playlists = append(batch.Playlists, *results[i])
	}
	return batch, nil
}
