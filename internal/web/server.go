// Package web provides an HTTP status server for the cylon-meter daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/cylon-meter/internal/logic"
	"github.com/sweeney/cylon-meter/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	log        *zap.SugaredLogger
}

// LEDJSON is the response body of the single-LED endpoint.
type LEDJSON struct {
	Index int  `json:"index"`
	On    bool `json:"on"`
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, log *zap.SugaredLogger) *Server {
	s := &Server{tracker: tracker, log: log}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	router.HandleFunc("/leds/{index:[0-9]+}", s.handleLED).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.log.Errorw("render status page", "error", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(status.FormatJSON(snap)); err != nil {
		s.log.Debugw("write status json", "error", err)
	}
}

func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || i >= logic.NumLEDs {
		http.NotFound(w, r)
		return
	}

	leds := s.tracker.Snapshot().Display.LEDs
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(LEDJSON{Index: i, On: leds[i]}); err != nil {
		s.log.Debugw("write led json", "error", err)
	}
}
