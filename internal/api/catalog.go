package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// PartsHandler handles part catalog endpoints.
type PartsHandler struct {
	DB *sql.DB
}

type createPartRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type partDetail struct {
	*model.Part
	Distribution []model.Inventory `json:"distribution"`
	Total        int               `json:"total"`
}

// List handles GET /api/parts.
func (h *PartsHandler) List(w http.ResponseWriter, r *http.Request) {
	parts, err := store.ListParts(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list parts", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list parts")
		return
	}
	if parts == nil {
		parts = []model.Part{}
	}
	jsonResponse(w, http.StatusOK, parts)
}

// Create handles POST /api/parts.
func (h *PartsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPartRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	part, err := store.CreatePart(r.Context(), h.DB, req.Name, req.Unit)
	if err != nil {
		slog.Error("failed to create part", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create part")
		return
	}

	slog.Info("part created", "user", GetClaims(r.Context()).Username, "part", part.Name)
	jsonResponse(w, http.StatusCreated, part)
}

// Get handles GET /api/parts/{id}. The response includes the part's stock at
// every location.
func (h *PartsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	part, err := store.GetPart(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get part", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get part")
		return
	}
	if part == nil {
		jsonError(w, http.StatusNotFound, "part not found")
		return
	}

	inv, err := store.ListInventory(r.Context(), h.DB, store.InventoryFilter{PartID: id})
	if err != nil {
		slog.Error("failed to get part inventory", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get part")
		return
	}

	detail := partDetail{Part: part, Distribution: inv}
	if detail.Distribution == nil {
		detail.Distribution = []model.Inventory{}
	}
	for _, i := range inv {
		detail.Total += i.Quantity
	}
	jsonResponse(w, http.StatusOK, detail)
}

// Delete handles DELETE /api/parts/{id}.
func (h *PartsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	if err := store.DeletePart(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete part", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete part")
		return
	}

	slog.Info("part deleted", "user", GetClaims(r.Context()).Username, "part_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "part deleted"})
}

// SitesHandler handles site endpoints.
type SitesHandler struct {
	DB *sql.DB
}

type createSiteRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/sites.
func (h *SitesHandler) List(w http.ResponseWriter, r *http.Request) {
	sites, err := store.ListSites(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list sites", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list sites")
		return
	}
	if sites == nil {
		sites = []model.Site{}
	}
	jsonResponse(w, http.StatusOK, sites)
}

// Create handles POST /api/sites.
func (h *SitesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	site, err := store.CreateSite(r.Context(), h.DB, req.Name)
	if err != nil {
		slog.Error("failed to create site", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create site")
		return
	}

	slog.Info("site created", "user", GetClaims(r.Context()).Username, "site", site.Name)
	jsonResponse(w, http.StatusCreated, site)
}

// Delete handles DELETE /api/sites/{id}.
func (h *SitesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid site id")
		return
	}

	if err := store.DeleteSite(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("site deleted", "user", GetClaims(r.Context()).Username, "site_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "site deleted"})
}

// Inventory handles GET /api/sites/{id}/inventory.
func (h *SitesHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid site id")
		return
	}

	site, err := store.GetSite(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get site", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get site")
		return
	}
	if site == nil {
		jsonError(w, http.StatusNotFound, "site not found")
		return
	}

	inv, err := store.ListInventory(r.Context(), h.DB, store.InventoryFilter{Location: model.AtSite(id)})
	if err != nil {
		slog.Error("failed to list site inventory", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if inv == nil {
		inv = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, inv)
}
