package api

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/slpu/game/search"
	"github.com/wricardo/mcp-training/slpu/game/service"
	"github.com/wricardo/mcp-training/slpu/transport/websocket"
)

// maxBodySize caps request bodies; a 32x32 board with every line drawn is
// far below it.
const maxBodySize = 4 << 20

const banner = "Snakes and Ladders PowerUp server is running. POST an SVG board to /slpu to generate rolls.\n"

// Server represents the HTTP server
type Server struct {
	service service.SolverService
	hub     *websocket.Hub
	router  *mux.Router
	handler http.Handler
}

// NewServer creates a new API server
func NewServer(solver service.SolverService, hub *websocket.Hub) *Server {
	s := &Server{
		service: solver,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()

	// mux only runs its own middleware on matched routes, so the chain wraps
	// the whole router
	s.handler = chi.Chain(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Heartbeat("/health"),
	).Handler(s.router)

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleHome).Methods("GET")
	s.router.HandleFunc("/slpu", s.handleSLPU).Methods("POST")

	api := s.router.PathPrefix("/api").Subrouter()

	// Solving
	api.HandleFunc("/solve", s.handleSolve).Methods("POST")
	api.HandleFunc("/simulate", s.handleSimulate).Methods("POST")
	api.HandleFunc("/board", s.handleBoard).Methods("POST")

	// Run history
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	// Profiles
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles", s.handleSaveProfile).Methods("POST")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]string{"error": err.Error()}
	if kind := service.ErrorKind(err); kind != "" {
		body["kind"] = kind
	}
	respondJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRunNotFound), errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidProfile):
		return http.StatusBadRequest
	}
	switch service.ErrorKind(err) {
	case service.KindMalformedBoard, service.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// rollsDocument is the SVG answer of /slpu
type rollsDocument struct {
	XMLName xml.Name `xml:"http://www.w3.org/2000/svg svg"`
	Text    string   `xml:"text"`
}

// renderRolls writes rolls as the text of a minimal SVG document. Empty
// rolls still produce a well-formed document.
func renderRolls(w io.Writer, rolls string) error {
	return xml.NewEncoder(w).Encode(rollsDocument{Text: rolls})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, banner)
}

// handleSLPU answers every request with 200 and an SVG document. Callers
// tell failure apart only by the empty text element.
func (s *Server) handleSLPU(w http.ResponseWriter, r *http.Request) {
	rolls := ""

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Printf("[SLPU] request=%s failed to read body: %v", middleware.GetReqID(r.Context()), err)
	} else {
		req := service.SolveRequest{
			SVG:       string(body),
			Profile:   r.URL.Query().Get("profile"),
			RequestID: middleware.GetReqID(r.Context()),
			Source:    service.SourceSVG,
		}
		if seed := r.URL.Query().Get("seed"); seed != "" {
			n, err := strconv.ParseInt(seed, 10, 64)
			if err != nil {
				log.Printf("[SLPU] request=%s ignoring seed %q: %v", req.RequestID, seed, err)
			} else {
				req.Seed = n
			}
		}

		result, err := s.service.Solve(r.Context(), req)
		if result != nil && result.Run != nil {
			w.Header().Set("X-Run-ID", result.Run.ID)
		}
		if err != nil {
			log.Printf("[SLPU] request=%s no rolls: %v", req.RequestID, err)
		} else {
			rolls = result.Rolls
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if err := renderRolls(w, rolls); err != nil {
		log.Printf("[SLPU] failed to write response: %v", err)
	}
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req service.SolveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RequestID = middleware.GetReqID(r.Context())
	req.Source = sourceFrom(r)

	result, err := s.service.Solve(r.Context(), req)
	if err != nil {
		if result != nil {
			// Rejected boards still carry the recorded run and board details
			respondJSON(w, statusFor(err), map[string]any{
				"error": err.Error(),
				"kind":  service.ErrorKind(err),
				"run":   result.Run,
				"board": result.Board,
			})
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// sourceFrom reads the X-Client header set by the MCP and CLI clients
func sourceFrom(r *http.Request) string {
	switch client := r.Header.Get("X-Client"); client {
	case service.SourceMCP, service.SourceCLI:
		return client
	}
	return service.SourceAPI
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Simulate(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleBoard accepts a raw SVG body or a JSON body {"svg": "..."}
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	svg, err := readSVG(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.InspectBoard(r.Context(), svg)
	if err != nil {
		if info != nil {
			respondJSON(w, statusFor(err), info)
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func readSVG(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return string(body), nil
	}

	var req struct {
		SVG string `json:"svg"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", fmt.Errorf("invalid request body")
	}
	return req.SVG, nil
}

// Run Handlers

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	if profile := query.Get("profile"); profile != "" {
		filtered := make([]*service.Run, 0, len(runs))
		for _, run := range runs {
			if run.Profile == profile {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	total := len(runs)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			runs = runs[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"total": total,
		"runs":  runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", id),
	})
}

// Profile Handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.service.ListProfiles(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	opts, err := s.service.LoadProfile(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, opts)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var opts search.Options
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&opts); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if opts.Name == "" {
		respondError(w, http.StatusBadRequest, "Profile name is required")
		return
	}

	if err := s.service.SaveProfile(r.Context(), opts.Name, &opts); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":    "Profile saved successfully",
		"profile_id": opts.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	s.hub.ServeWS(w, r, r.URL.Query().Get("topic"))
}
