package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/sleigh-balancer/internal/balancer"
	"github.com/eugenenazirov/sleigh-balancer/internal/partition"
	"github.com/eugenenazirov/sleigh-balancer/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxRequestBodyBytes = 1 << 20

// Handler wires balancer and storage dependencies into HTTP handlers.
type Handler struct {
	balancer balancer.Balancer
	storage  storage.Storage

	clock func() time.Time

	mu               sync.RWMutex
	weightsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(b balancer.Balancer, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		balancer: b,
		storage:  store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.weightsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetWeights(w http.ResponseWriter, _ *http.Request) {
	weights, err := h.storage.GetWeights()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := weightsResponse{
		Weights:   weights,
		UpdatedAt: h.currentWeightsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutWeights(w http.ResponseWriter, r *http.Request) {
	var req weightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Weights) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid weights", "weights must contain at least one item")
		return
	}

	if err := h.storage.SetWeights(req.Weights); err != nil {
		if errors.Is(err, storage.ErrInvalidWeights) {
			writeError(w, http.StatusBadRequest, "Invalid weights", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markWeightsUpdated()

	weights, err := h.storage.GetWeights()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := weightsResponse{
		Weights:   weights,
		UpdatedAt: h.currentWeightsUpdatedAt(),
		Message:   "Weights updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	weights := req.Weights
	if weights == nil {
		stored, err := h.storage.GetWeights()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		weights = stored
	}

	if req.Compartments == 0 {
		h.balanceAll(r.Context(), w, weights)
		return
	}

	mode, err := balancer.ParseMode(req.Compartments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "compartments must be 3, 4 or omitted")
		return
	}

	result, err := h.balancer.Balance(r.Context(), weights, mode)
	if err != nil {
		writeBalanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(result))
}

func (h *Handler) balanceAll(ctx context.Context, w http.ResponseWriter, weights []int) {
	report, err := h.balancer.BalanceAll(ctx, weights)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
		return
	}

	resp := balanceAllResponse{Results: make([]outcomeResponse, 0, len(report.Outcomes))}
	for _, o := range report.Outcomes {
		out := outcomeResponse{Compartments: int(o.Mode)}
		if o.Err != nil {
			_, body := balanceErrorResponse(o.Err)
			out.Error = &body
		} else {
			result := newBalanceResponse(o.Result)
			out.Result = &result
		}
		resp.Results = append(resp.Results, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentWeightsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.weightsUpdatedAt
}

func (h *Handler) markWeightsUpdated() {
	h.mu.Lock()
	h.weightsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type weightsRequest struct {
	Weights []int `json:"weights"`
}

type balanceRequest struct {
	Weights      []int `json:"weights"`
	Compartments int   `json:"compartments"`
}

type groupResponse struct {
	Compartment  string `json:"compartment"`
	Items        []int  `json:"items"`
	Weight       int    `json:"weight"`
	Entanglement uint64 `json:"entanglement"`
}

type balanceResponse struct {
	Compartments      int             `json:"compartments"`
	Target            int             `json:"target"`
	FootwellItems     int             `json:"footwellItems"`
	Entanglement      uint64          `json:"entanglement"`
	Groups            []groupResponse `json:"groups"`
	Partitions        int             `json:"partitions,omitempty"`
	Cached            bool            `json:"cached"`
	CalculationTimeMs int64           `json:"calculationTimeMs"`
}

type outcomeResponse struct {
	Compartments int              `json:"compartments"`
	Result       *balanceResponse `json:"result,omitempty"`
	Error        *errorResponse   `json:"error,omitempty"`
}

type balanceAllResponse struct {
	Results []outcomeResponse `json:"results"`
}

type weightsResponse struct {
	Weights   []int     `json:"weights"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func newBalanceResponse(result balancer.Result) balanceResponse {
	groups := make([]groupResponse, 0, len(result.Groups))
	for _, g := range result.Groups {
		groups = append(groups, groupResponse{
			Compartment:  g.Compartment.String(),
			Items:        g.Items,
			Weight:       g.Weight,
			Entanglement: g.Entanglement,
		})
	}
	return balanceResponse{
		Compartments:      int(result.Mode),
		Target:            result.Target,
		FootwellItems:     result.FootwellCount,
		Entanglement:      result.Entanglement,
		Groups:            groups,
		Partitions:        result.Partitions,
		Cached:            result.Cached,
		CalculationTimeMs: result.Elapsed.Milliseconds(),
	}
}

// balanceErrorResponse maps balancer and partition errors onto an HTTP status
// and response body.
func balanceErrorResponse(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, balancer.ErrInvalidWeights),
		errors.Is(err, balancer.ErrInvalidMode),
		errors.Is(err, partition.ErrNoItems),
		errors.Is(err, partition.ErrNonPositiveWeight),
		errors.Is(err, partition.ErrWeightOverflow):
		return http.StatusBadRequest, errorResponse{Error: "Invalid request", Details: err.Error()}
	case errors.Is(err, balancer.ErrTooManyItems):
		return http.StatusRequestEntityTooLarge, errorResponse{
			Error:      "Too many items",
			Details:    err.Error(),
			Suggestion: "Split the manifest across several sleighs",
		}
	case errors.Is(err, partition.ErrIndivisibleTotal):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:      "Cannot balance",
			Details:    err.Error(),
			Suggestion: "The total weight must divide evenly by the number of compartments",
		}
	case errors.Is(err, partition.ErrItemTooLarge):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:      "Cannot balance",
			Details:    err.Error(),
			Suggestion: "No single item may outweigh a compartment's share",
		}
	case errors.Is(err, balancer.ErrNoSolution):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:      "Cannot balance",
			Details:    err.Error(),
			Suggestion: "Try the other compartment count or adjust the manifest",
		}
	case errors.Is(err, balancer.ErrSearchTimeout):
		return http.StatusGatewayTimeout, errorResponse{Error: "Search timed out", Details: err.Error()}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorResponse{Error: "Request cancelled", Details: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Internal error", Details: err.Error()}
	}
}

func writeBalanceError(w http.ResponseWriter, err error) {
	status, body := balanceErrorResponse(err)
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
