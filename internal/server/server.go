package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"blitz-tracker/internal/constants"
	"blitz-tracker/internal/service"

	"github.com/rs/zerolog"
)

// MaxUploadBytes bounds a single replay upload.
const MaxUploadBytes = 32 << 20

// Server is the JSON HTTP surface over the replay and tank-stat services.
type Server struct {
	replaySvc   *service.ReplayService
	tankStatSvc *service.TankStatService
	logger      zerolog.Logger
}

func NewServer(replaySvc *service.ReplayService, tankStatSvc *service.TankStatService, logger zerolog.Logger) *Server {
	return &Server{replaySvc: replaySvc, tankStatSvc: tankStatSvc, logger: logger}
}

// Register mounts the API routes.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/replays", s.handleRecentReplays)
	mux.HandleFunc("GET /api/replays/{id}", s.handleGetReplay)
	mux.HandleFunc("POST /api/replays/upload", s.handleUploadReplay)
	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("POST /api/tank-stats", s.handleIngestTankStats)
	mux.HandleFunc("GET /api/tank-stats/{account}", s.handleListTankStats)
}

// handleGetReplay serves one replay in its wire form, mirroring the upstream
// payload shape.
func (s *Server) handleGetReplay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	id := r.PathValue("id")
	replay, err := s.replaySvc.GetReplay(ctx, id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if replay == nil {
		s.writeError(w, http.StatusNotFound, "replay not found")
		return
	}

	wire, err := replay.WireJSON()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeRaw(w, http.StatusOK, wire)
}

func (s *Server) handleRecentReplays(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	replays, err := s.replaySvc.Recent(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, replays)
}

func (s *Server) handleUploadReplay(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	title := r.FormValue("title")
	private := r.FormValue("private") == "1"

	// No request timeout here: the upload passes through the shared rate
	// limiter and its own retry bound.
	replay, err := s.replaySvc.UploadReplay(r.Context(), header.Filename, title, private, data)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if replay == nil {
		s.writeError(w, http.StatusBadGateway, "upload failed")
		return
	}

	wire, err := replay.WireJSON()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeRaw(w, http.StatusOK, wire)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	pages := 1
	if v := r.URL.Query().Get("pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid pages parameter")
			return
		}
		pages = n
	}

	result, err := s.replaySvc.SyncListing(r.Context(), pages)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngestTankStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := s.tankStatSvc.Ingest(ctx, payload)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"stored": count})
}

func (s *Server) handleListTankStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	accountID, err := strconv.ParseInt(r.PathValue("account"), 10, 64)
	if err != nil || accountID < 0 {
		s.writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	stats, err := s.tankStatSvc.ListByAccount(ctx, accountID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
