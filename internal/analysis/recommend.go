package analysis

import (
	"fmt"

	"github.com/google/uuid"
)

// RecommendationMode selects what a recommendation request is trying to do.
type RecommendationMode string

const (
	// ModeAnomalyReplace seeks replacements for a flagged track that better
	// match the playlist's dominant mood.
	ModeAnomalyReplace RecommendationMode = "anomaly_replace"
	// ModeAnomalyExtend seeks tracks extending a flagged track's own style.
	ModeAnomalyExtend RecommendationMode = "anomaly_extend"
	// ModeMoodExpand seeks additional tracks matching a cluster's mood.
	ModeMoodExpand RecommendationMode = "mood_expand"
)

// RecommendationRequest is a seed payload for an external recommender. This
// engine only builds requests; candidate generation and ranking happen
// elsewhere.
type RecommendationRequest struct {
	RequestID            string             `json:"request_id"`
	PlaylistID           string             `json:"playlist_id"`
	ClusterID            int                `json:"cluster_id"`
	SeedTrackIDs         []string           `json:"seed_track_ids"`
	SeedCentroidFeatures map[string]float64 `json:"seed_centroid_features"`
	Mode                 RecommendationMode `json:"mode"`
}

// AnomalyRequests builds one request per flagged track. ModeAnomalyReplace
// seeds against the dominant cluster's centroid; ModeAnomalyExtend seeds
// against the track's own cluster centroid so the recommender can follow the
// outlier's style instead.
func AnomalyRequests(res *PlaylistAnalysis, mode RecommendationMode) ([]RecommendationRequest, error) {
	if mode != ModeAnomalyReplace && mode != ModeAnomalyExtend {
		return nil, fmt.Errorf("unsupported anomaly recommendation mode %q", mode)
	}
	if res.Summary.DominantClusterID == nil {
		return nil, nil
	}
	dom := *res.Summary.DominantClusterID

	byID := make(map[int]*Cluster, len(res.Clusters))
	for i := range res.Clusters {
		byID[res.Clusters[i].ID] = &res.Clusters[i]
	}

	var out []RecommendationRequest
	for _, rec := range res.Anomalies {
		if !rec.IsAnomaly {
			continue
		}
		seedCluster := dom
		if mode == ModeAnomalyExtend {
			seedCluster = rec.ClusterID
		}
		c := byID[seedCluster]
		if c == nil {
			continue
		}
		out = append(out, RecommendationRequest{
			RequestID:            uuid.New().String(),
			PlaylistID:           res.PlaylistID,
			ClusterID:            seedCluster,
			SeedTrackIDs:         []string{rec.TrackID},
			SeedCentroidFeatures: c.CentroidFeatures.AudioMeans,
			Mode:                 mode,
		})
	}
	return out, nil
}

// MoodRequests builds one mood_expand request per cluster, seeded with the
// cluster's representative members and centroid profile.
func MoodRequests(res *PlaylistAnalysis) []RecommendationRequest {
	var out []RecommendationRequest
	for _, c := range res.Clusters {
		seeds := c.RepresentativeTrackIDs
		if len(seeds) == 0 {
			seeds = c.MemberTrackIDs
		}
		out = append(out, RecommendationRequest{
			RequestID:            uuid.New().String(),
			PlaylistID:           res.PlaylistID,
			ClusterID:            c.ID,
			SeedTrackIDs:         seeds,
			SeedCentroidFeatures: c.CentroidFeatures.AudioMeans,
			Mode:                 ModeMoodExpand,
		})
	}
	return out
}
