package server

import (
	"encoding/json"
	"net/http"

	"github.com/subhanUmer/secureweb-engine/internal/collect"
	"github.com/subhanUmer/secureweb-engine/internal/jsblock"
)

type urlRequest struct {
	URL string `json:"url"`
}

type scriptRequest struct {
	Code      string `json:"code"`
	SourceURL string `json:"source_url"`
}

type scriptResponse struct {
	jsblock.Result
	Trivial bool `json:"trivial"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) postURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.AnalyzeURL(r.Context(), req.URL))
}

func (s *Server) postScript(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if jsblock.TrivialText(req.Code) {
		writeJSON(w, http.StatusOK, scriptResponse{Trivial: true})
		return
	}
	writeJSON(w, http.StatusOK, scriptResponse{
		Result: s.engine.AnalyzeScript(req.Code, req.SourceURL),
	})
}

func (s *Server) postPage(w http.ResponseWriter, r *http.Request) {
	var obs collect.PageBehavior
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil || obs.Domain == "" {
		writeError(w, http.StatusBadRequest, "page observation with domain is required")
		return
	}
	anomaly := s.engine.ReportPage(r.Context(), &obs)
	writeJSON(w, http.StatusOK, map[string]any{"anomaly": anomaly})
}

func (s *Server) postExtensionScan(w http.ResponseWriter, r *http.Request) {
	anomalies, err := s.engine.ScanExtensions(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("extension scan failed")
		writeError(w, http.StatusBadGateway, "extension enumeration failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"anomalies": anomalies})
}

func (s *Server) getAnomalies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Anomalies())
}

func (s *Server) getBlocked(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.BlockedScripts())
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"urls":              s.engine.URLStats(),
		"anomalies_handled": s.engine.AnomaliesHandled(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
