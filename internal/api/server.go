// Package api provides the HTTP API for watching and steering the fleet.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/tidewater/internal/config"
	"github.com/talgya/tidewater/internal/engine"
	"github.com/talgya/tidewater/internal/fleet"
	"github.com/talgya/tidewater/internal/nav"
	"github.com/talgya/tidewater/internal/persistence"
	"github.com/talgya/tidewater/internal/world"
)

// Server serves the simulation over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // optional; enables ?source=journal
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	corsOrigins []string
	orders      *RateLimiter
	routes      *RateLimiter // route previews run A* per request
	hub         *Hub
}

// NewServer creates a server for sim using the API section of the config.
func NewServer(sim *engine.Simulation, eng *engine.Engine, cfg config.APIConfig) *Server {
	return &Server{
		Sim:         sim,
		Eng:         eng,
		Port:        cfg.Port,
		AdminKey:    cfg.AdminKey,
		corsOrigins: cfg.CORSOrigins,
		orders:      NewRateLimiter(120, time.Minute),
		routes:      NewRateLimiter(60, time.Minute),
		hub:         NewHub(),
	}
}

// RunHub feeds simulation events to stream clients until ctx is done.
func (s *Server) RunHub(ctx context.Context) {
	events, cancel := s.Sim.Subscribe(256)
	defer cancel()
	s.hub.Run(ctx, events)
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/ships", s.handleShips)
	mux.HandleFunc("/api/v1/ship/", s.handleShipRoutes)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/map", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/map/", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/route", RateLimitMiddleware(s.routes, s.handleRoute))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(s.corsOrigins, mux)
}

// Start begins serving the HTTP API and the stream hub in goroutines.
// The returned server is for shutdown.
func (s *Server) Start(ctx context.Context) *http.Server {
	go s.RunHub(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no "+config.EnvAdminKey+" set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) status() map[string]any {
	tick := s.Sim.CurrentTick()
	st := s.Sim.Stats()
	status := map[string]any{
		"name":     "Tidewater",
		"tick":     tick,
		"sim_time": engine.SimTime(tick),
		"ships":    st.Ships,
		"harbors":  len(s.Sim.Harbors),
		"radius":   s.Sim.WorldMap.Radius,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	if s.DB != nil {
		status["run_id"] = s.DB.RunID()
	}
	return status
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats())
}

// handleShips lists every ship, optionally filtered by ?mode=.
func (s *Server) handleShips(w http.ResponseWriter, r *http.Request) {
	ships := s.Sim.Ships()
	if mode := r.URL.Query().Get("mode"); mode != "" {
		filtered := ships[:0]
		for _, v := range ships {
			if v.Mode == mode {
				filtered = append(filtered, v)
			}
		}
		ships = filtered
	}
	writeJSON(w, ships)
}

// handleShipRoutes dispatches between ship detail (GET /api/v1/ship/:id)
// and orders (POST /api/v1/ship/:id/order).
func (s *Server) handleShipRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/ship/")
	idPart, action, _ := strings.Cut(rest, "/")

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		http.Error(w, "invalid ship id", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		v, ok := s.Sim.Ship(fleet.ShipID(id))
		if !ok {
			http.Error(w, "ship not found", http.StatusNotFound)
			return
		}
		writeJSON(w, v)
	case "order":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.adminOnly(RateLimitMiddleware(s.orders, func(w http.ResponseWriter, r *http.Request) {
			s.handleOrder(w, r, fleet.ShipID(id))
		}))(w, r)
	default:
		http.NotFound(w, r)
	}
}

// OrderRequest is the body of POST /api/v1/ship/:id/order.
type OrderRequest struct {
	Type      string           `json:"type"` // move, waypoint, patrol, attack, stop, dock, undock, remove
	Q         int              `json:"q"`
	R         int              `json:"r"`
	Waypoints []world.HexCoord `json:"waypoints,omitempty"`
	Target    fleet.ShipID     `json:"target,omitempty"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request, id fleet.ShipID) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	dest := world.HexCoord{Q: req.Q, R: req.R}
	var err error
	switch req.Type {
	case "move":
		err = s.Sim.MoveTo(id, dest)
	case "waypoint":
		err = s.Sim.QueueWaypoint(id, dest)
	case "patrol":
		err = s.Sim.StartPatrol(id, req.Waypoints)
	case "attack":
		err = s.Sim.Attack(id, req.Target)
	case "stop":
		err = s.Sim.Stop(id)
	case "dock":
		err = s.Sim.Dock(id)
	case "undock":
		err = s.Sim.Undock(id)
	case "remove":
		err = s.Sim.Remove(id)
	default:
		http.Error(w, "unknown order type (use: move, waypoint, patrol, attack, stop, dock, undock, remove)", http.StatusBadRequest)
		return
	}

	switch {
	case errors.Is(err, engine.ErrUnknownShip):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	slog.Info("order accepted", "ship", id, "type", req.Type)
	if req.Type == "remove" {
		writeJSON(w, map[string]any{"id": id, "removed": true})
		return
	}
	v, _ := s.Sim.Ship(id)
	writeJSON(w, v)
}

// handleEvents returns recent events, oldest first. ?limit= caps the count,
// ?ship= filters by ship and ?source=journal reads from the database.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var events []engine.Event
	if r.URL.Query().Get("source") == "journal" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		s.Sim.Flush()
		recent, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("journal read failed", "error", err)
			http.Error(w, "journal read failed", http.StatusInternalServerError)
			return
		}
		for i := len(recent) - 1; i >= 0; i-- {
			events = append(events, recent[i])
		}
	} else {
		events = s.Sim.RecentEvents(0)
	}

	if shipParam := r.URL.Query().Get("ship"); shipParam != "" {
		id, err := strconv.ParseUint(shipParam, 10, 64)
		if err != nil {
			http.Error(w, "invalid ship id", http.StatusBadRequest)
			return
		}
		var filtered []engine.Event
		for _, e := range events {
			if e.Ship == fleet.ShipID(id) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	out := events[start:]
	if out == nil {
		out = []engine.Event{}
	}
	writeJSON(w, out)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleMapRoutes dispatches between bulk map (GET /api/v1/map) and hex
// detail (GET /api/v1/map/:q,:r).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		s.handleBulkMap(w, r)
		return
	}
	s.handleHexDetail(w, r, strings.TrimPrefix(path, "/"))
}

// handleBulkMap returns all hexes for the map renderer.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	type hexEntry struct {
		Q         int     `json:"q"`
		R         int     `json:"r"`
		Terrain   uint8   `json:"terrain"`
		Elevation float64 `json:"elevation"`
	}

	hexes := make([]hexEntry, 0, s.Sim.WorldMap.HexCount())
	for _, c := range world.Range(world.HexCoord{}, s.Sim.WorldMap.Radius) {
		h := s.Sim.WorldMap.Get(c)
		if h == nil {
			continue
		}
		hexes = append(hexes, hexEntry{
			Q:         c.Q,
			R:         c.R,
			Terrain:   uint8(h.Terrain),
			Elevation: h.Elevation,
		})
	}

	writeJSON(w, map[string]any{
		"radius":  s.Sim.WorldMap.Radius,
		"hexes":   hexes,
		"harbors": s.Sim.Harbors,
	})
}

// handleHexDetail returns one hex and the ships standing on it.
func (s *Server) handleHexDetail(w http.ResponseWriter, r *http.Request, key string) {
	coord, err := world.ParseKey(key)
	if err != nil {
		http.Error(w, "invalid hex key (use q,r)", http.StatusBadRequest)
		return
	}
	h := s.Sim.WorldMap.Get(coord)
	if h == nil {
		http.Error(w, "hex not found", http.StatusNotFound)
		return
	}

	ships := []engine.ShipView{}
	for _, v := range s.Sim.Ships() {
		if v.Position == coord {
			ships = append(ships, v)
		}
	}

	var harbor *world.Harbor
	for i := range s.Sim.Harbors {
		if s.Sim.Harbors[i].Coord == coord {
			harbor = &s.Sim.Harbors[i]
			break
		}
	}

	writeJSON(w, map[string]any{
		"hex":      h,
		"passable": h.Terrain.IsWater(),
		"harbor":   harbor,
		"ships":    ships,
	})
}

// handleRoute previews a plain shortest path: GET /api/v1/route?from=q,r&to=q,r.
// An impassable or unreachable goal is answered with the nearest water cell
// the path could use instead.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	from, err := world.ParseKey(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from (use q,r)", http.StatusBadRequest)
		return
	}
	to, err := world.ParseKey(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to (use q,r)", http.StatusBadRequest)
		return
	}

	m := s.Sim.WorldMap
	path, err := nav.FindPath(m, from, to, nil)
	if err == nil {
		writeJSON(w, map[string]any{"path": path, "length": len(path)})
		return
	}

	resp := map[string]any{"path": []world.HexCoord{}, "error": err.Error()}
	if alt, ok := nav.FindNearestWater(m, to, &from); ok {
		resp["nearest_water"] = alt
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
