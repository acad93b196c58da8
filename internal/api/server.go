package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oculab-data/gaze.report/internal/db"
	"github.com/oculab-data/gaze.report/internal/gaze"
	"github.com/oculab-data/gaze.report/internal/trackermux"
	"github.com/oculab-data/gaze.report/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	m       trackermux.TrackerMuxInterface
	session *gaze.Session
	db      *db.DB
	units   string
	geom    units.Geometry
}

func NewServer(m trackermux.TrackerMuxInterface, session *gaze.Session, database *db.DB, targetUnits string, geom units.Geometry) *Server {
	return &Server{
		m:       m,
		session: session,
		db:      database,
		units:   targetUnits,
		geom:    geom,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/metrics", s.showMetrics)
	mux.HandleFunc("/api/samples", s.ingestSamples)
	mux.HandleFunc("/api/session/reset", s.resetSession)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/sessions/", s.showSessionEvents)
	mux.HandleFunc("/api/gaze_stats", s.showGazeStats)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/command", s.sendCommandHandler)
	mux.HandleFunc("/debug/gaze_path", s.handleGazePathChart)
	mux.HandleFunc("/debug/fixation_heatmap.png", s.handleFixationHeatmap)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	command := r.FormValue("command")

	if err := s.m.SendCommand(command); err != nil {
		http.Error(w, "Failed to send command", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "Command sent successfully")
}

func (s *Server) showMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	m := s.session.Metrics()

	resp := struct {
		SessionID string `json:"session_id"`
		gaze.Metrics
	}{
		SessionID: s.session.ID(),
		Metrics:   m,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write metrics")
		return
	}
}

// ingestSamples accepts a JSON array of gaze samples and feeds them through
// the live session. It exists for webcam-based capture where the browser,
// not a serial tracker, produces the samples.
func (s *Server) ingestSamples(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var samples []gaze.GazeSample
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&samples); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid sample payload: %v", err))
		return
	}

	var fixations, saccades int
	for _, sample := range samples {
		result := s.session.ProcessSample(sample)
		if result.Fixation != nil {
			fixations++
		}
		if result.Saccade != nil {
			saccades++
		}
	}

	json.NewEncoder(w).Encode(map[string]int{
		"accepted":  len(samples),
		"fixations": fixations,
		"saccades":  saccades,
	})
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.session.Reset()
	json.NewEncoder(w).Encode(map[string]string{"session_id": s.session.ID(), "status": "reset"})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Persistence disabled")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	sessions, err := s.db.ListSessions(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.SessionRecord{}
	}

	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sessions")
		return
	}
}

// showSessionEvents serves /api/sessions/{id}/events.
func (s *Server) showSessionEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Persistence disabled")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, ok := strings.CutSuffix(rest, "/events")
	if !ok || sessionID == "" || strings.Contains(sessionID, "/") {
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	fixations, saccades, err := s.db.SessionEvents(sessionID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve events: %v", err))
		return
	}
	if fixations == nil {
		fixations = []gaze.Fixation{}
	}
	if saccades == nil {
		saccades = []gaze.Saccade{}
	}

	resp := map[string]interface{}{
		"session_id": sessionID,
		"fixations":  fixations,
		"saccades":   saccades,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write events")
		return
	}
}

func (s *Server) showGazeStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Persistence disabled")
		return
	}

	days := 1 // default value
	if d := r.URL.Query().Get("days"); d != "" {
		parsedDays, err := strconv.Atoi(d)
		if err != nil || parsedDays < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'days' parameter")
			return
		}
		days = parsedDays
	}

	stats, err := s.db.SessionRollup(days, s.session.Config().ProlongedFixationMs)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve gaze stats: %v", err))
		return
	}
	if stats == nil {
		stats = []db.GazeRollup{}
	}

	// Amplitudes are stored in pixels; convert to the display units.
	for i := range stats {
		stats[i].AvgSaccadeAmplitude = units.ConvertDistance(stats[i].AvgSaccadeAmplitude, s.units, s.geom)
	}

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write gaze stats")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg := s.session.Config()
	config := map[string]interface{}{
		"units":                    s.units,
		"dispersion_threshold_px":  cfg.DispersionThresholdPx,
		"min_fixation_duration_ms": cfg.MinFixationDurationMs,
		"prolonged_fixation_ms":    cfg.ProlongedFixationMs,
		"pitch_mm_per_px":          s.geom.PitchMmPerPx,
		"viewing_distance_mm":      s.geom.ViewingDistanceMm,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
