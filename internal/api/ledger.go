package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/report"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// LedgerHandler serves the stock transaction ledger.
type LedgerHandler struct {
	DB *sql.DB
}

// List handles GET /api/ledger?part_id=&location=&ref_type=&ref_id=&batch_id=&limit=.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.TransactionFilter

	var ok bool
	if f.PartID, ok = queryID(r, "part_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid part_id")
		return
	}
	if f.RefID, ok = queryID(r, "ref_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid ref_id")
		return
	}
	if v := q.Get("location"); v != "" {
		loc, err := model.ParseLocation(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Location = loc
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = uint(n)
	}
	f.RefType = q.Get("ref_type")
	f.BatchID = q.Get("batch_id")

	txs, err := store.ListTransactions(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list ledger", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	if txs == nil {
		txs = []model.StockTransaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// ReportsHandler serves downloadable reports.
type ReportsHandler struct {
	DB *sql.DB
}

// Usage handles GET /api/reports/usage.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both dates are inclusive.
func (h *ReportsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	var f store.UsageFilter

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		f.To = t.AddDate(0, 0, 1)
	}

	logs, err := store.ListUsageLogs(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list usage logs", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="usage.xlsx"`)
	if err := report.WriteUsage(w, logs); err != nil {
		slog.Error("failed to write usage report", "error", err)
	}
}
