package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corollary/warehouse/internal/core/domain"
	"github.com/corollary/warehouse/internal/core/service"
	"github.com/corollary/warehouse/internal/port"
)

// HTTPHandler is the presentation boundary: it validates typed requests and
// maps engine errors to status codes. The engine never sees free text.
type HTTPHandler struct {
	engine          *service.Engine
	guard           port.IdempotencyGuard
	logger          *zap.Logger
	defaultLocation string
}

// NewHTTPHandler builds the handler. guard may be nil, in which case
// duplicate-request filtering is disabled. defaultLocation is applied when a
// restock request names no location; the engine itself has no default.
func NewHTTPHandler(engine *service.Engine, guard port.IdempotencyGuard, logger *zap.Logger, defaultLocation string) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{engine: engine, guard: guard, logger: logger, defaultLocation: defaultLocation}
}

// Register wires all routes onto mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/orders", h.Orders)
	mux.HandleFunc("/api/orders/cancel", h.CancelOrder)
	mux.HandleFunc("/api/restock", h.Restock)
	mux.HandleFunc("/api/fulfill", h.Fulfill)
	mux.HandleFunc("/api/products", h.Products)
	mux.HandleFunc("/api/products/remove", h.RemoveProduct)
	mux.HandleFunc("/api/locations", h.Locations)
	mux.HandleFunc("/api/report", h.Report)
	mux.HandleFunc("/api/admin/reset", h.Reset)
}

type placeOrderRequest struct {
	RequestID string `json:"request_id"`
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
	Requester string `json:"requester"`
}

type restockRequest struct {
	Location string `json:"location"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type cancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

type removeProductRequest struct {
	Product string `json:"product"`
}

type addLocationRequest struct {
	Name        string `json:"name"`
	MaxCapacity int    `json:"max_capacity"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *HTTPHandler) Orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.placeOrder(w, r)
	case http.MethodGet:
		h.listOrders(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "invalid request body"})
		return
	}

	req.Product = strings.TrimSpace(req.Product)
	req.Requester = strings.TrimSpace(req.Requester)
	if req.Product == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "product and a positive quantity are required"})
		return
	}
	if !strings.Contains(req.Requester, "@") {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "requester must be a valid email address"})
		return
	}

	if h.guard != nil {
		if req.RequestID == "" {
			req.RequestID = uuid.New().String()
		}
		ok, err := h.guard.SetIdempotency(r.Context(), req.RequestID)
		if err != nil {
			h.logger.Warn("idempotency check failed", zap.Error(err))
		} else if !ok {
			writeJSON(w, http.StatusConflict, apiResponse{Message: "duplicate request"})
			return
		}
	}

	order, err := h.engine.PlaceOrder(r.Context(), req.Product, req.Quantity, req.Requester)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "order placed", Data: order})
}

func (h *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.engine.Orders(r.Context(), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: orders})
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.OrderID) == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "order_id is required"})
		return
	}

	if err := h.engine.CancelOrder(r.Context(), strings.TrimSpace(req.OrderID)); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "order cancelled"})
}

func (h *HTTPHandler) Restock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "invalid request body"})
		return
	}

	req.Product = strings.TrimSpace(req.Product)
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		req.Location = h.defaultLocation
	}
	if req.Product == "" || req.Location == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "location, product and a positive quantity are required"})
		return
	}

	product, err := h.engine.Restock(r.Context(), req.Location, req.Product, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "restocked", Data: product})
}

func (h *HTTPHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	order, err := h.engine.FulfillNext(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "queue empty"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "order processed", Data: order})
}

func (h *HTTPHandler) Products(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: h.engine.Snapshot(r.Context())})
}

func (h *HTTPHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req removeProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Product) == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "product is required"})
		return
	}

	if err := h.engine.RemoveProduct(r.Context(), req.Product); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "product removed"})
}

func (h *HTTPHandler) Locations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: h.engine.Locations(r.Context())})
	case http.MethodPost:
		var req addLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{Message: "invalid request body"})
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.MaxCapacity <= 0 {
			writeJSON(w, http.StatusBadRequest, apiResponse{Message: "name and a positive max_capacity are required"})
			return
		}
		loc, err := h.engine.AddLocation(r.Context(), req.Name, req.MaxCapacity)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "location added", Data: loc})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		location = h.defaultLocation
	}
	if location == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "location is required"})
		return
	}

	report, err := h.engine.Report(r.Context(), location)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: report})
}

func (h *HTTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.engine.Reset(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "inventory and order history cleared"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError || errors.Is(err, domain.ErrInvalidTransition) {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, apiResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
