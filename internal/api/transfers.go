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

// TransfersHandler handles central-to-site transfer endpoints.
type TransfersHandler struct {
	DB     *sql.DB
	Stock  *stock.Service
	Events events.Publisher
}

type createTransferRequest struct {
	DestinationID *int64                    `json:"destination_site_id"`
	Items         []model.StockTransferItem `json:"items"`
	Note          string                    `json:"note"`
}

type executeTransferResponse struct {
	Transfer *model.StockTransfer `json:"transfer"`
	Result   *stock.Result        `json:"result"`
}

// Create handles POST /api/transfers. The transfer is recorded as PENDING;
// stock moves when it is executed.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DestinationID != nil {
		site, err := store.GetSite(r.Context(), h.DB, *req.DestinationID)
		if err != nil {
			slog.Error("failed to get site", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to create transfer")
			return
		}
		if site == nil || site.DeletedAt != nil {
			jsonError(w, http.StatusBadRequest, "destination site not found")
			return
		}
	}

	transfer, err := store.CreateStockTransfer(r.Context(), h.DB, req.DestinationID, req.Items, req.Note, currentUserID(r))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("transfer requested", "user", GetClaims(r.Context()).Username,
		"transfer_id", transfer.ID, "items", len(transfer.Items))
	jsonResponse(w, http.StatusCreated, transfer)
}

// List handles GET /api/transfers?status=.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != model.TransferPending && status != model.TransferApproved {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	transfers, err := store.ListStockTransfers(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list transfers", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []model.StockTransfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := store.GetStockTransfer(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get transfer", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get transfer")
		return
	}
	if transfer == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// Execute handles POST /api/transfers/{id}/execute.
func (h *TransfersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	res, err := h.Stock.ExecuteStockTransfer(r.Context(), nil, id, currentUserID(r))
	if err != nil {
		stockError(w, err, "execute transfer")
		return
	}

	transfer, err := store.GetStockTransfer(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to reload transfer", "error", err)
	}

	slog.Info("transfer executed", "user", GetClaims(r.Context()).Username,
		"transfer_id", id, "batch_id", res.BatchID)
	publish(r.Context(), h.Events, events.TypeTransferExecuted, res)
	jsonResponse(w, http.StatusOK, executeTransferResponse{Transfer: transfer, Result: res})
}
