// Package web provides the HTTP status server for the valve controller.
// Every request derives valve state from a live register read through the
// controller; nothing here caches it.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/valve-controller/internal/status"
	"github.com/sweeney/valve-controller/internal/valve"
)

// Reporter supplies the live valve report. Satisfied by *valve.Controller.
type Reporter interface {
	Reports() ([]valve.Report, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	reporter   Reporter
	tracker    *status.Tracker
}

// New creates a Server reading valve state from reporter and daemon
// metadata from tracker.
func New(addr string, reporter Reporter, tracker *status.Tracker) *Server {
	s := &Server{reporter: reporter, tracker: tracker}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
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
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	reports, err := s.reporter.Reports()
	if err != nil {
		http.Error(w, "register read failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, reports, s.tracker.Snapshot())
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reporter.Reports()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write(formatErrorJSON(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatJSON(reports, s.tracker.Snapshot()))
}
