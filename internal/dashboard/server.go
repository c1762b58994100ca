// Package dashboard serves the browser control surface: twin state and
// visuals as JSON, live updates over SSE, control inputs, framework
// switching and CSV export. Rendering itself happens client-side.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/coordinator"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	coord     *coordinator.Coordinator
	collector *metrics.Collector
	hub       *Hub
	exportDir string
	http      *http.Server
}

func NewServer(addr string, coord *coordinator.Coordinator, collector *metrics.Collector, hub *Hub, exportDir string) *Server {
	s := &Server{
		coord:     coord,
		collector: collector,
		hub:       hub,
		exportDir: exportDir,
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	router.Get("/", s.serveIndex)
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.serveStatus)
		r.Get("/state", s.serveState)
		r.Get("/events", s.serveEvents)
		r.Get("/frameworks", s.serveFrameworks)
		r.Post("/framework/{id}", s.selectFramework)
		r.Post("/model/{id}", s.selectModel)
		r.Post("/entity/{id}", s.selectEntity)
		r.Post("/controls/{feature}/{property}", s.controlInput)
		r.Get("/metrics/csv", s.exportCSV)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	logger.Info().Str("addr", s.http.Addr).Msg("Dashboard listening")
	return s.http.ListenAndServe()
}

// Shutdown stops the server, waiting briefly for in-flight requests
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.http.Shutdown(ctx)
}

func (s *Server) serveStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.coord.Status()

	writeJSON(w, map[string]any{
		"state":     status.State.String(),
		"framework": status.Framework,
		"modelId":   status.ModelID,
		"entity":    status.Entity,
		"message":   status.Message,
		"metrics": map[string]any{
			"meanFps":       status.Metrics.MeanFPS,
			"meanMemoryMb":  status.Metrics.MeanMemoryMB,
			"loadTimeMs":    status.Metrics.LoadTimeMS,
			"meanLatencyMs": status.Metrics.MeanLatencyMS,
		},
	})
}

func (s *Server) serveState(w http.ResponseWriter, _ *http.Request) {
	status := s.coord.Status()

	writeJSON(w, map[string]any{
		"temperature": status.Model.Temperature,
		"rpm":         status.Model.RPM,
		"alarmStatus": status.Model.AlarmStatus,
		"flowRate":    status.Model.FlowRate,
	})
}

func (s *Server) serveFrameworks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"frameworks": s.coord.Frameworks()})
}

// serveEvents streams visual frames to the page as server-sent events
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) selectFramework(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coord.SelectFramework(id); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, map[string]any{"framework": id})
}

func (s *Server) selectModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coord.SelectModel(id); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, map[string]any{"modelId": id})
}

func (s *Server) selectEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.coord.SelectEntity(id)
	writeJSON(w, map[string]any{"entity": id})
}

// controlInput drives a UI control. ?commit=true marks the discrete
// "committed" event (drag release); anything else is a continuous
// "changing" event.
func (s *Server) controlInput(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	property := chi.URLParam(r, "property")

	var payload struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	commit, _ := strconv.ParseBool(r.URL.Query().Get("commit"))
	if commit {
		s.coord.ControlCommitted(feature, property, payload.Value)
	} else {
		s.coord.ControlChanging(feature, property, payload.Value)
	}

	writeJSON(w, map[string]any{"accepted": true, "commit": commit})
}

// exportCSV triggers a browser-level download of the session summary;
// ?save=true additionally writes a timestamped copy to the export
// directory on the server side
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		http.Error(w, "metrics not enabled", http.StatusNotFound)
		return
	}

	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save && s.exportDir != "" {
		path, err := s.collector.WriteCSVFile(s.exportDir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, map[string]any{"saved": path})
		return
	}

	summary := s.collector.Summary()
	filename := fmt.Sprintf("metrics_%s.csv", summary.Framework)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := s.collector.ExportCSV(w); err != nil {
		logger.Warn().Err(err).Msg("CSV export failed")
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
}
