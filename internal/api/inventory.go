package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/events"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/stock"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// InventoryHandler handles stock level endpoints.
type InventoryHandler struct {
	DB     *sql.DB
	Stock  *stock.Service
	Events events.Publisher
}

type receiveRequest struct {
	PartID       int64          `json:"part_id"`
	Location     model.Location `json:"location"`
	Quantity     int            `json:"quantity"`
	DocumentCode string         `json:"document_code"`
	Note         string         `json:"note"`
}

type adjustRequest struct {
	PartID   int64          `json:"part_id"`
	Location model.Location `json:"location"`
	Delta    int            `json:"delta"`
	Note     string         `json:"note"`
}

type checkRequest struct {
	Location model.Location  `json:"location"`
	Parts    []model.JobPart `json:"parts"`
}

// List handles GET /api/inventory?location=&part_id=&nonzero=.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var f store.InventoryFilter

	if v := r.URL.Query().Get("location"); v != "" {
		loc, err := model.ParseLocation(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Location = loc
	}
	partID, ok := queryID(r, "part_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part_id")
		return
	}
	f.PartID = partID
	f.NonZero = r.URL.Query().Get("nonzero") == "true"

	inventory, err := store.ListInventory(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list inventory", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if inventory == nil {
		inventory = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, inventory)
}

// Check handles POST /api/inventory/check. It reports whether a location can
// cover a list of parts without changing anything.
func (h *InventoryHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	checks, err := h.Stock.CheckSiteStock(r.Context(), nil, req.Parts, req.Location)
	if err != nil {
		stockError(w, err, "check stock")
		return
	}
	jsonResponse(w, http.StatusOK, checks)
}

// Receive handles POST /api/inventory/receive.
func (h *InventoryHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Stock.ReceiveStock(r.Context(), nil, stock.Receipt{
		PartID:       req.PartID,
		Location:     req.Location,
		Quantity:     req.Quantity,
		UserID:       currentUserID(r),
		DocumentCode: req.DocumentCode,
		Note:         req.Note,
	})
	if err != nil {
		stockError(w, err, "receive stock")
		return
	}

	slog.Info("stock received", "user", GetClaims(r.Context()).Username,
		"part_id", req.PartID, "location", req.Location, "quantity", req.Quantity)
	publish(r.Context(), h.Events, events.TypeStockReceived, res)
	jsonResponse(w, http.StatusCreated, res)
}

// Adjust handles POST /api/inventory/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Stock.AdjustStock(r.Context(), nil, stock.Adjustment{
		PartID:   req.PartID,
		Location: req.Location,
		Delta:    req.Delta,
		UserID:   currentUserID(r),
		Note:     req.Note,
	})
	if err != nil {
		stockError(w, err, "adjust stock")
		return
	}

	slog.Info("stock adjusted", "user", GetClaims(r.Context()).Username,
		"part_id", req.PartID, "location", req.Location, "delta", req.Delta)
	publish(r.Context(), h.Events, events.TypeStockAdjusted, res)
	jsonResponse(w, http.StatusOK, res)
}
