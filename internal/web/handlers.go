package web

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/moodlens/moodlens/internal/analysis"
)

// Handlers holds the HTTP handlers for the analysis API.
type Handlers struct {
	analyzer *analysis.Analyzer
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(analyzer *analysis.Analyzer, log zerolog.Logger) *Handlers {
	return &Handlers{
		analyzer: analyzer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

type analyzeRequest struct {
	Playlists []analysis.Playlist `json:"playlists" validate:"required,min=1"`
}

type compareRequest struct {
	Playlists []analysis.Playlist `json:"playlists" validate:"required,min=2"`
}

type anomalyRecsRequest struct {
	Playlists []analysis.Playlist `json:"playlists" validate:"required,min=1"`
	Mode      string              `json:"mode" validate:"required,oneof=anomaly_replace anomaly_extend"`
}

type moodSelectRequest struct {
	Playlists []analysis.Playlist `json:"playlists" validate:"required,min=1"`
	MoodLabel string              `json:"mood_label" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// decode unmarshals and validates a request body. A false return means the
// error response has already been written.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("encoding response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine errors onto HTTP statuses. Input contract
// violations are the caller's fault.
func (h *Handlers) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, analysis.ErrNoPlaylists) ||
		errors.Is(err, analysis.ErrEmptyTrackList) ||
		errors.Is(err, analysis.ErrMalformedTrack) {
		status = http.StatusBadRequest
	}
	h.writeError(w, status, err.Error())
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Analyze runs the full pipeline over the submitted playlists.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := h.analyzer.AnalyzeBatch(r.Context(), req.Playlists)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, batch)
}

type compareResponse struct {
	Comparison analysis.ComparisonResult  `json:"comparison"`
	Failures   []analysis.PlaylistFailure `json:"failures,omitempty"`
}

// Compare analyzes the playlists and summarizes their mood overlap.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := h.analyzer.AnalyzeBatch(r.Context(), req.Playlists)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, compareResponse{
		Comparison: analysis.Compare(batch.Playlists),
		Failures:   batch.Failures,
	})
}

type recommendationsResponse struct {
	Requests []analysis.RecommendationRequest `json:"requests"`
	Failures []analysis.PlaylistFailure       `json:"failures,omitempty"`
}

// RecommendAnomalies builds per-anomaly recommendation payloads in the
// requested mode.
func (h *Handlers) RecommendAnomalies(w http.ResponseWriter, r *http.Request) {
	var req anomalyRecsRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := h.analyzer.AnalyzeBatch(r.Context(), req.Playlists)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	resp := recommendationsResponse{Failures: batch.Failures}
	for i := range batch.Playlists {
		reqs, err := analysis.AnomalyRequests(&batch.Playlists[i], analysis.RecommendationMode(req.Mode))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Requests = append(resp.Requests, reqs...)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// RecommendMoods builds per-cluster mood_expand payloads.
func (h *Handlers) RecommendMoods(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := h.analyzer.AnalyzeBatch(r.Context(), req.Playlists)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	resp := recommendationsResponse{Failures: batch.Failures}
	for i := range batch.Playlists {
		resp.Requests = append(resp.Requests, analysis.MoodRequests(&batch.Playlists[i])...)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type moodSelectResponse struct {
	MoodLabel string               `json:"mood_label"`
	Tracks    []analysis.MoodTrack `json:"tracks"`
}

// SelectMood returns tracks matching a mood label across the submitted
// playlists.
func (h *Handlers) SelectMood(w http.ResponseWriter, r *http.Request) {
	var req moodSelectRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := h.analyzer.AnalyzeBatch(r.Context(), req.Playlists)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, moodSelectResponse{
		MoodLabel: req.MoodLabel,
		Tracks:    analysis.SelectTracksByMood(batch.Playlists, req.MoodLabel),
	})
}
