// Package vizserver exposes a running arena over HTTP: JSON roster and
// commands under /api, plus a websocket stream of snapshot lines.
package vizserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Service serves one arena through its runner.
type Service struct {
	addr     string
	runner   *arena.Runner
	logger   io.Writer
	upgrader websocket.Upgrader
}

// NewService creates a service listening on addr. Access logs go to logger
// in combined log format; nil disables them.
func NewService(addr string, r *arena.Runner, logger io.Writer) *Service {
	return &Service{
		addr:   addr,
		runner: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the routed handler, wrapped in the access logger.
func (s *Service) Handler() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.snapshot).Methods("GET")
	api.HandleFunc("/roster", s.roster).Methods("GET")
	api.HandleFunc("/state/{action:play|pause|reset}", s.setState).Methods("POST")
	api.HandleFunc("/robots", s.addRobot).Methods("POST")
	api.HandleFunc("/robots/{sel}", s.removeRobot).Methods("DELETE")
	api.HandleFunc("/obstacles", s.addObstacle).Methods("POST")
	api.HandleFunc("/obstacles/{sel}", s.removeObstacle).Methods("DELETE")
	router.HandleFunc("/ws", s.stream).Methods("GET")

	if s.logger == nil {
		return router
	}
	return handlers.CombinedLoggingHandler(s.logger, router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Service) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Println("viz listening on " + s.addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return errors.Wrap(err, "vizserver")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "vizserver shutdown")
		}
		return ctx.Err()
	}
}

type stateResponse struct {
	State string `json:"state"`
	Tick  int    `json:"tick"`
}

type robotRequest struct {
	Name string  `json:"name"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

type obstacleRequest struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("vizserver: encode response: %v", err)
	}
}

// writeError maps arena sentinels onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, arena.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, arena.ErrUnknownKind),
		errors.Is(err, arena.ErrInvalidSize),
		errors.Is(err, arena.ErrInvalidName):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Service) snapshot(w http.ResponseWriter, _ *http.Request) {
	var body string
	s.runner.Do(func(a *arena.Arena) { body = a.SnapshotText() })
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func (s *Service) roster(w http.ResponseWriter, _ *http.Request) {
	var r arena.Roster
	s.runner.Do(func(a *arena.Arena) { r = a.Roster() })
	writeJSON(w, http.StatusOK, r)
}

func (s *Service) setState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	s.runner.Do(func(a *arena.Arena) {
		switch mux.Vars(r)["action"] {
		case "play":
			a.Play()
		case "pause":
			a.Pause()
		case "reset":
			a.Reset()
		}
		resp = stateResponse{State: a.State().String(), Tick: a.TickCount()}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) addRobot(w http.ResponseWriter, r *http.Request) {
	var req robotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid robot: " + err.Error()})
		return
	}
	kind, err := arena.ParseAgentKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	var rec arena.AgentRecord
	s.runner.Do(func(a *arena.Arena) {
		var ag *arena.Agent
		ag, err = a.AddAgent(req.Name, kind, req.X, req.Y, req.Size)
		if err == nil {
			rec = ag.Record()
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Service) removeRobot(w http.ResponseWriter, r *http.Request) {
	var (
		rec arena.AgentRecord
		err error
	)
	s.runner.Do(func(a *arena.Arena) {
		var ag *arena.Agent
		ag, err = a.RemoveAgent(mux.Vars(r)["sel"])
		if err == nil {
			rec = ag.Record()
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Service) addObstacle(w http.ResponseWriter, r *http.Request) {
	var req obstacleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid obstacle: " + err.Error()})
		return
	}
	kind, err := arena.ParseObstacleKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	var rec arena.ObstacleRecord
	s.runner.Do(func(a *arena.Arena) {
		var o *arena.Obstacle
		o, err = a.AddObstacle(kind, req.X, req.Y, req.Size)
		if err == nil {
			rec = o.Record()
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Service) removeObstacle(w http.ResponseWriter, r *http.Request) {
	var (
		rec arena.ObstacleRecord
		err error
	)
	s.runner.Do(func(a *arena.Arena) {
		var o *arena.Obstacle
		o, err = a.RemoveObstacle(mux.Vars(r)["sel"])
		if err == nil {
			rec = o.Record()
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
