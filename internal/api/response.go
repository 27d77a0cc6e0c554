package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/events"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/stock"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id > 0
}

// currentUserID returns the authenticated user's ID, or nil.
func currentUserID(r *http.Request) *int64 {
	claims := GetClaims(r.Context())
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}

// stockErrorResponse is the body of a rejected stock operation.
type stockErrorResponse struct {
	Error     string           `json:"error"`
	Kind      string           `json:"kind"`
	Shortages []stock.Shortage `json:"shortages,omitempty"`
}

// stockError maps a stock or workflow error to a response. Domain rejections
// are 409 with a kind the client can act on; anything else is a 500.
func stockError(w http.ResponseWriter, err error, action string) {
	var short *stock.InsufficientStockError
	var missing *stock.MissingInventoryRecordError
	var invalid *stock.InvalidStateError

	switch {
	case errors.As(err, &short):
		jsonResponse(w, http.StatusConflict, stockErrorResponse{Error: err.Error(), Kind: "insufficient_stock", Shortages: short.Shortages})
	case errors.As(err, &missing):
		jsonResponse(w, http.StatusConflict, stockErrorResponse{Error: err.Error(), Kind: "missing_inventory_record"})
	case errors.As(err, &invalid):
		jsonResponse(w, http.StatusConflict, stockErrorResponse{Error: err.Error(), Kind: "invalid_state"})
	case errors.Is(err, stock.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stock.ErrInvalidRequest):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("stock operation failed", "action", action, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// publish announces a committed operation. Failures are logged and dropped:
// the movement is already committed.
func publish(ctx context.Context, pub events.Publisher, eventType string, res *stock.Result) {
	if res == nil || len(res.Transactions) == 0 {
		return
	}
	event := events.NewStockEvent(eventType, res.BatchID, res.Transactions)
	if err := pub.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.Warn("publishing stock event", "type", eventType, "batch_id", res.BatchID, "error", err)
	}
}
