package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/HORIZON/internal/config"
	"github.com/copyleftdev/HORIZON/internal/logging"
	"github.com/copyleftdev/HORIZON/internal/metrics"
	"github.com/copyleftdev/HORIZON/internal/optimization"
	"github.com/copyleftdev/HORIZON/internal/optimization/energy"
	"github.com/copyleftdev/HORIZON/internal/optimization/solver"
)

// Logger defines the logging interface used by the server.
// This allows us to be flexible with our logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// DispatchState tracks one dispatch run through its lifecycle. Access is
// guarded by the server's mutex.
type DispatchState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	Scenario    *energy.Scenario
	StartTime   time.Time
	EndTime     *time.Time
	Result      *optimization.Result
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP and JSON-RPC surface of the dispatch service.
// Each run gets a freshly constructed model instance; model instances are
// never shared between runs.
type Server struct {
	cfg    *config.Config
	logger Logger

	dispatches   map[string]*DispatchState
	dispatchesMu sync.RWMutex
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		dispatches: make(map[string]*DispatchState),
	}
}

// RegisterRoutes mounts the REST and JSON-RPC endpoints.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/dispatch", s.handleDispatch)
		r.Get("/dispatch/{id}", s.handleStatus)
		r.Delete("/dispatch/{id}", s.handleCancel)
	})

	r.Post("/rpc", s.handleJSONRPC)
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "dispatch.start":
		result, err = s.startDispatch(request.Params)
	case "dispatch.status":
		result, err = s.dispatchStatus(request.Params)
	case "dispatch.cancel":
		err = s.cancelDispatch(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// startDispatch validates a scenario and launches a run.
// Expected parameters: [scenario object].
// Returns: {"dispatch_id": "run_123", "status": "pending"}.
func (s *Server) startDispatch(params []json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing scenario parameter")
	}

	var scenario energy.Scenario
	if err := json.Unmarshal(params[0], &scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %v", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	s.applyDefaults(&scenario)

	id := fmt.Sprintf("run_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())

	state := &DispatchState{
		ID:          id,
		Status:      "pending",
		Scenario:    &scenario,
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.dispatchesMu.Lock()
	s.dispatches[id] = state
	s.dispatchesMu.Unlock()

	metrics.RunsStarted.Inc()
	go s.runDispatch(ctx, state)

	return map[string]interface{}{
		"dispatch_id": id,
		"status":      "pending",
	}, nil
}

// applyDefaults fills scenario gaps from the service configuration.
func (s *Server) applyDefaults(sc *energy.Scenario) {
	if sc.Alpha == 0 && sc.Beta == 0 && sc.Gamma == 0 {
		sc.Alpha = s.cfg.Dispatch.Alpha
		sc.Beta = s.cfg.Dispatch.Beta
		sc.Gamma = s.cfg.Dispatch.Gamma
	}
	if sc.TimeHorizon <= 0 {
		sc.TimeHorizon = s.cfg.Dispatch.TimeHorizon
	}
	if sc.Steps < 1 {
		sc.Steps = s.cfg.Dispatch.Steps
	}
	if sc.MaxIterations < 1 {
		sc.MaxIterations = s.cfg.Dispatch.MaxIterations
	}
	if sc.Tolerance <= 0 {
		sc.Tolerance = s.cfg.Dispatch.Tolerance
	}
}

// runDispatch executes one run in a goroutine. The model is constructed
// fresh here so no run-scoped state can leak between runs.
func (s *Server) runDispatch(ctx context.Context, state *DispatchState) {
	s.setStatus(state, "running")

	start := time.Now()
	result, err := s.solve(ctx, state.Scenario)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())

	s.dispatchesMu.Lock()
	defer s.dispatchesMu.Unlock()

	switch {
	case ctx.Err() != nil && state.Status == "cancelled":
		// Cancellation already recorded; drop the late result.
		return
	case err != nil:
		s.logger.Error("dispatch failed", map[string]interface{}{
			"dispatch_id": state.ID,
			"error":       err.Error(),
		})
		state.Status = "failed"
		metrics.RunsFinished.WithLabelValues("failed").Inc()
	default:
		state.Status = "completed"
		state.Result = result
		metrics.RunsFinished.WithLabelValues("completed").Inc()
		metrics.SolverIterations.Observe(float64(result.Iterations))
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// solve builds the model and driver for one scenario and runs it.
func (s *Server) solve(ctx context.Context, sc *energy.Scenario) (*optimization.Result, error) {
	model, err := sc.Model()
	if err != nil {
		return nil, err
	}
	zlog := logging.NewZapLogger(s.logger.WithFields(map[string]interface{}{
		"component": "driver",
	}))
	driver := optimization.NewDriver(model, sc.RunConfig(), solver.NewAugmented(), zlog)
	return driver.Optimize(ctx, sc.Start())
}

// setStatus transitions a run's status under the lock.
func (s *Server) setStatus(state *DispatchState, status string) {
	s.dispatchesMu.Lock()
	defer s.dispatchesMu.Unlock()
	state.Status = status
	state.LastUpdated = time.Now()
}

// dispatchStatus reports a run's progress and, once finished, its result.
// Expected parameters: [{"dispatch_id": "run_123"}].
func (s *Server) dispatchStatus(params []json.RawMessage) (interface{}, error) {
	id, err := dispatchID(params)
	if err != nil {
		return nil, err
	}

	s.dispatchesMu.RLock()
	defer s.dispatchesMu.RUnlock()

	state, exists := s.dispatches[id]
	if !exists {
		return nil, fmt.Errorf("dispatch not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Result != nil {
		response["result"] = map[string]interface{}{
			"success":    state.Result.Success,
			"trajectory": state.Result.Trajectory,
			"final_cost": state.Result.FinalCost,
			"iterations": state.Result.Iterations,
			"message":    state.Result.Message,
		}
	}
	return response, nil
}

// cancelDispatch cancels a running dispatch.
// Expected parameters: [{"dispatch_id": "run_123"}].
func (s *Server) cancelDispatch(params []json.RawMessage) error {
	id, err := dispatchID(params)
	if err != nil {
		return err
	}

	s.dispatchesMu.Lock()
	defer s.dispatchesMu.Unlock()

	state, exists := s.dispatches[id]
	if !exists {
		return fmt.Errorf("dispatch not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel dispatch with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	metrics.RunsFinished.WithLabelValues("cancelled").Inc()

	s.logger.Info("dispatch cancelled", map[string]interface{}{
		"dispatch_id": id,
	})
	return nil
}

// dispatchID extracts the dispatch_id parameter object.
func dispatchID(params []json.RawMessage) (string, error) {
	if len(params) == 0 {
		return "", fmt.Errorf("missing required parameters")
	}
	var p struct {
		DispatchID string `json:"dispatch_id"`
	}
	if err := json.Unmarshal(params[0], &p); err != nil {
		return "", fmt.Errorf("invalid parameter format, expected object")
	}
	if p.DispatchID == "" {
		return "", fmt.Errorf("dispatch_id is required")
	}
	return p.DispatchID, nil
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels all running dispatches.
func (s *Server) Close() error {
	s.dispatchesMu.Lock()
	defer s.dispatchesMu.Unlock()

	for _, d := range s.dispatches {
		if d.CancelFunc != nil {
			d.CancelFunc()
		}
	}
	return nil
}

// handleDispatch handles POST /api/v1/dispatch: the body is a scenario
// document in the same schema the CLI reads from YAML.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	raw, err := rawBody(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.startDispatch([]json.RawMessage{raw})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// rawBody reads the request body as a raw JSON message.
func rawBody(r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// handleStatus handles GET /api/v1/dispatch/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing dispatch ID", http.StatusBadRequest)
		return
	}

	result, err := s.dispatchStatus(idParams(id))

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/dispatch/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing dispatch ID", http.StatusBadRequest)
		return
	}

	err := s.cancelDispatch(idParams(id))

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}

// idParams builds the single-object parameter list used by the RPC handlers.
func idParams(id string) []json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"dispatch_id": id})
	return []json.RawMessage{raw}
}
