package analysis

import "sort"

// MoodEntry groups a playlist's clusters and tracks under one mood label.
type MoodEntry struct {
	ClusterIDs []int    `json:"cluster_ids"`
	TrackIDs   []string `json:"track_ids"`
}

// buildMoodIndex inverts the cluster list into a label -> members index.
// Labels are unique within a playlist after disambiguation, so each entry
// normally holds one cluster id.
func buildMoodIndex(cls []Cluster) map[string]MoodEntry {
	if len(cls) == 0 {
		return nil
	}
	index := make(map[string]MoodEntry, len(cls))
	for _, c := range cls {
		entry := index[c.Label]
		entry.ClusterIDs = append(entry.ClusterIDs, c.ID)
		entry.TrackIDs = append(entry.TrackIDs, c.MemberTrackIDs...)
		index[c.Label] = entry
	}
	return index
}

// MoodTrack is one track selected by mood label, annotated with where it
// came from and its anomaly standing there.
type MoodTrack struct {
	PlaylistID   string  `json:"playlist_id"`
	TrackID      string  `json:"track_id"`
	Title        string  `json:"title,omitempty"`
	ClusterID    int     `json:"cluster_id"`
	AnomalyScore float64 `json:"anomaly_score"`
	IsAnomaly    bool    `json:"is_anomaly"`
	Reason       string  `json:"reason,omitempty"`
}

// SelectTracksByMood returns, across all given analyses, the tracks whose
// cluster carries the requested mood label. Results are ordered by playlist
// then cluster membership order.
func SelectTracksByMood(results []PlaylistAnalysis, label string) []MoodTrack {
	if label == "" {
		return nil
	}
	var out []MoodTrack
	for ri := range results {
		res := &results[ri]
		records := make(map[string]*AnomalyRecord, len(res.Anomalies))
		for i := range res.Anomalies {
			records[res.Anomalies[i].TrackID] = &res.Anomalies[i]
		}
		clusterIDs := res.Moods[label].ClusterIDs
		sort.Ints(clusterIDs)
		for _, cid := range clusterIDs {
			for _, c := range res.Clusters {
				if c.ID != cid {
					continue
				}
				for _, tid := range c.MemberTrackIDs {
					mt := MoodTrack{
						PlaylistID: res.PlaylistID,
						TrackID:    tid,
						ClusterID:  cid,
					}
					if rec := records[tid]; rec != nil {
						mt.Title = rec.Title
						mt.AnomalyScore = rec.AnomalyScore
						mt.IsAnomaly = rec.IsAnomaly
						mt.Reason = rec.Reason
					}
					out = append(out, mt)
				}
			}
		}
	}
	return out
}
