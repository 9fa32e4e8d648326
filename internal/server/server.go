// Package server exposes rooms over HTTP and websockets.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"unoserver/internal/game"
	"unoserver/internal/room"
	"unoserver/internal/storage"
)

const defaultResultLimit = 50

// ResultLister reads the finished-game ledger. GetResult returns
// sql.ErrNoRows for a room with no recorded game.
type ResultLister interface {
	ListResults(ctx context.Context, limit int) ([]storage.Result, error)
	GetResult(ctx context.Context, roomID string) (*storage.Result, error)
}

// Options configure a Server.
type Options struct {
	Rooms   *room.Registry
	Results ResultLister
	Logger  logrus.FieldLogger
	// OriginAllowlist holds host patterns accepted for websocket
	// upgrades. Empty accepts any origin.
	OriginAllowlist []string
}

// Server is the HTTP server.
type Server struct {
	router  chi.Router
	rooms   *room.Registry
	results ResultLister
	log     logrus.FieldLogger
	origins []string
}

// New creates a server with all routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	s := &Server{
		router:  chi.NewRouter(),
		rooms:   opts.Rooms,
		results: opts.Results,
		log:     opts.Logger,
		origins: opts.OriginAllowlist,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/rooms", s.handleListRooms)
		r.Get("/rooms/{roomID}", s.handleGetRoom)
		r.Get("/results", s.handleListResults)
		r.Get("/results/{roomID}", s.handleGetResult)
	})
	s.router.Get("/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"remote":   r.RemoteAddr,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.List())
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.rooms.Get(chi.URLParam(r, "roomID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": game.Code(game.ErrRoomNotFound)})
		return
	}
	writeJSON(w, http.StatusOK, rm.View())
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if s.results == nil {
		writeJSON(w, http.StatusOK, []storage.Result{})
		return
	}
	results, err := s.results.ListResults(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("list results")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not read results"})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	notFound := map[string]string{"error": "ResultNotFound"}
	if s.results == nil {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}
	roomID := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "roomID")))
	res, err := s.results.GetResult(r.Context(), roomID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, notFound)
	case err != nil:
		s.log.WithError(err).WithField("room", roomID).Error("get result")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not read results"})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
