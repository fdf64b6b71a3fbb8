// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"playgroup_finder/internal/app"
	"playgroup_finder/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct{ Q *app.QueryService }

type errorBody struct {
	Error string `json:"error"`
}

type filteredRequest struct {
	Filters     domain.Criteria `json:"filters"`
	Translation string          `json:"translation"`
}

type filteredMeta struct {
	Count  int           `json:"count"`
	Sample domain.Record `json:"sample"`
	Cached bool          `json:"cached"`
}

type filteredResponse struct {
	Data []domain.Record `json:"data"`
	Meta filteredMeta    `json:"meta"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/sheets", h.getSheets)
	s.mux.Post("/api/filtered-sheets", h.filteredSheets)
	s.mux.Get("/api/markers", h.getMarkers)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Int("status", status).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) getSheets(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Q.AllRecords(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("sheets request failed")
		writeError(w, http.StatusInternalServerError, "Failed to load sheet data")
		return
	}

	etag, body := calcETagAndBody(map[string]any{"data": recs})
	if body == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sheet data")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write sheets body")
	}
}

func (h *Handlers) filteredSheets(w http.ResponseWriter, r *http.Request) {
	var req filteredRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	// an empty body means no filters
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Q.Filtered(r.Context(), req.Filters, req.Translation)
	if err != nil {
		log.Error().Err(err).Interface("filters", req.Filters).Msg("filtered sheets request failed")
		writeError(w, http.StatusInternalServerError, "Failed to process filtered sheets")
		return
	}

	writeJSON(w, http.StatusOK, filteredResponse{
		Data: res.Data,
		Meta: filteredMeta{Count: res.Count, Sample: res.Sample, Cached: res.Cached},
	})
}

func (h *Handlers) getMarkers(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Q.Markers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("markers request failed")
		writeError(w, http.StatusInternalServerError, "Failed to get markers")
		return
	}
	out := make([]domain.Record, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Record)
	}
	writeJSON(w, http.StatusOK, map[string]any{"markers": out})
}
