package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/service"
	"github.com/wricardo/agent-office/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.OfficeService
	hub     *websocket.Hub
	router  *mux.Router
	logger  log15.Logger
}

// NewServer creates a new API server. The hub may be nil.
func NewServer(officeService service.OfficeService, hub *websocket.Hub) *Server {
	s := &Server{
		service: officeService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  log15.New("module", "api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Offices
	api.HandleFunc("/offices", s.handleCreateOffice).Methods("POST")
	api.HandleFunc("/offices", s.handleListOffices).Methods("GET")
	api.HandleFunc("/offices/{id}", s.handleGetOffice).Methods("GET")
	api.HandleFunc("/offices/{id}", s.handleDeleteOffice).Methods("DELETE")
	api.HandleFunc("/offices/{id}/snapshot", s.handleGetSnapshot).Methods("GET")

	// Agents
	api.HandleFunc("/offices/{id}/agents", s.handleAddAgent).Methods("POST")
	api.HandleFunc("/offices/{id}/agents/{agent}", s.handleRemoveAgent).Methods("DELETE")
	api.HandleFunc("/offices/{id}/agents/{agent}/active", s.handleSetAgentActive).Methods("POST")
	api.HandleFunc("/offices/{id}/agents/{agent}/tool", s.handleSetAgentTool).Methods("POST")
	api.HandleFunc("/offices/{id}/agents/{agent}/events", s.handleAgentEvent).Methods("POST")

	// Layout editing
	api.HandleFunc("/offices/{id}/layout", s.handleGetLayout).Methods("GET")
	api.HandleFunc("/offices/{id}/layout", s.handleReplaceLayout).Methods("PUT")
	api.HandleFunc("/offices/{id}/furniture", s.handlePlaceFurniture).Methods("POST")
	api.HandleFunc("/offices/{id}/furniture/{fid}", s.handleMoveFurniture).Methods("PUT")
	api.HandleFunc("/offices/{id}/furniture/{fid}", s.handleRemoveFurniture).Methods("DELETE")

	// Stored layouts and catalog
	api.HandleFunc("/layouts", s.handleListLayouts).Methods("GET")
	api.HandleFunc("/layouts", s.handleSaveLayout).Methods("POST")
	api.HandleFunc("/layouts/{name}", s.handleGetLayoutByName).Methods("GET")
	api.HandleFunc("/catalog", s.handleGetCatalog).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message, "code": status})
}

// respondServiceError maps error kinds to status codes
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, layout.ErrPlacement):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalid),
		errors.Is(err, layout.ErrMalformedLayout),
		errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, catalog.ErrInvalidEntry),
		errors.Is(err, character.ErrInvalidSettings):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body; an empty body leaves v untouched when optional
func decode(r *http.Request, v any, optional bool) error {
	if r.Body == nil || (optional && r.ContentLength == 0) {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func agentID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["agent"])
	if err != nil {
		return 0, fmt.Errorf("agent id must be an integer: %q", mux.Vars(r)["agent"])
	}
	return id, nil
}

// Office Handlers

func (s *Server) handleCreateOffice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Layout string `json:"layout,omitempty"`
	}
	if err := decode(r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateOffice(r.Context(), req.Layout)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListOffices(w http.ResponseWriter, r *http.Request) {
	offices, err := s.service.ListOffices(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(offices, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = offices[i].CreatedAt, offices[j].CreatedAt
		} else {
			ti, tj = offices[i].LastAccessedAt, offices[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(offices)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(offices) {
		offices = offices[:l]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(offices),
		"total":   total,
		"offices": offices,
		"sort":    sortBy,
		"order":   order,
	})
}

func (s *Server) handleGetOffice(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetOffice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteOffice(w http.ResponseWriter, r *http.Request) {
	officeID := mux.Vars(r)["id"]

	if err := s.service.DeleteOffice(r.Context(), officeID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(officeID, websocket.EventOfficeDeleted, nil)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Office %s deleted", officeID),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetSnapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Agent Handlers

func (s *Server) handleAddAgent(w http.ResponseWriter, r *http.Request) {
	officeID := mux.Vars(r)["id"]

	var req struct {
		ID   *int   `json:"id"`
		Desk string `json:"desk,omitempty"`
	}
	if err := decode(r, &req, false); err != nil || req.ID == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain an integer id")
		return
	}

	view, err := s.service.AddAgent(r.Context(), officeID, *req.ID, req.Desk)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(officeID, websocket.EventAgent, view)
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleRemoveAgent(w http.ResponseWriter, r *http.Request) {
	officeID := mux.Vars(r)["id"]
	id, err := agentID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.RemoveAgent(r.Context(), officeID, id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(officeID, websocket.EventAgent, map[string]any{"id": id, "removed": true})

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Agent %d removed", id),
	})
}

func (s *Server) handleSetAgentActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active *bool `json:"active"`
	}
	if err := decode(r, &req, false); err != nil || req.Active == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain a boolean active")
		return
	}
	s.applyAgentEvent(w, r, service.AgentEvent{Active: req.Active})
}

func (s *Server) handleSetAgentTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool *string `json:"tool"`
	}
	if err := decode(r, &req, false); err != nil || req.Tool == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain a tool (empty string clears it)")
		return
	}
	s.applyAgentEvent(w, r, service.AgentEvent{Tool: req.Tool})
}

func (s *Server) handleAgentEvent(w http.ResponseWriter, r *http.Request) {
	var ev service.AgentEvent
	if err := decode(r, &ev, false); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.applyAgentEvent(w, r, ev)
}

func (s *Server) applyAgentEvent(w http.ResponseWriter, r *http.Request, ev service.AgentEvent) {
	officeID := mux.Vars(r)["id"]
	id, err := agentID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.service.ApplyAgentEvent(r.Context(), officeID, id, ev)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(officeID, websocket.EventAgent, view)
	respondJSON(w, http.StatusOK, view)
}

// Layout Handlers

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetLayout(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReplaceLayout(w http.ResponseWriter, r *http.Request) {
	officeID := mux.Vars(r)["id"]

	var doc layout.Document
	if err := decode(r, &doc, false); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid layout document")
		return
	}

	if err := s.service.ReplaceLayout(r.Context(), officeID, &doc); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(officeID, websocket.EventLayout, nil)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Layout replaced"})
}

func (s *Server) handlePlaceFurniture(w http.ResponseWriter, r *http.Request) {
	officeID := mux.Vars(r)["id"]

	var p layout.Placement
	if err := decode(r, &p, false); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid placement")
		return
	}

	res, err := s.service.PlaceFurniture(r.Context(), officeID, p)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(officeID, websocket.EventLayout, res.Placement)
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleMoveFurniture(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var mv service.FurnitureMove
	if err := decode(r, &mv, false); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid move")
		return
	}

	if err := s.service.MoveFurniture(r.Context(), vars["id"], vars["fid"], mv); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(vars["id"], websocket.EventLayout, nil)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Furniture %s moved", vars["fid"]),
	})
}

func (s *Server) handleRemoveFurniture(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.service.RemoveFurniture(r.Context(), vars["id"], vars["fid"]); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.broadcast(vars["id"], websocket.EventLayout, nil)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Furniture %s removed", vars["fid"]),
	})
}

// Stored Layout Handlers

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := s.service.ListLayouts(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, layouts)
}

func (s *Server) handleGetLayoutByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	doc, err := s.service.LoadLayout(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string           `json:"name"`
		Layout *layout.Document `json:"layout"`
	}
	if err := decode(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Layout == nil {
		respondError(w, http.StatusBadRequest, "Layout name and document are required")
		return
	}

	if err := s.service.SaveLayout(r.Context(), req.Name, req.Layout); err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Layout saved successfully",
		"name":    req.Name,
	})
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.GetCatalog(r.Context()))
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	officeID := r.URL.Query().Get("office")
	if officeID == "" {
		http.Error(w, "office parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket streaming disabled", http.StatusServiceUnavailable)
		return
	}

	snap, err := s.service.GetSnapshot(r.Context(), officeID)
	if err != nil {
		http.Error(w, "Invalid office", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, officeID, snap)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) broadcast(officeID, event string, data any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(officeID, event, data)
	}
}

// statusRecorder captures the response code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
