package api

import (
	"database/sql"
	"net/http"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/approval"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/events"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/stock"
)

// NewRouter creates the API router with all endpoints registered. Committed
// stock movements are announced on pub.
func NewRouter(db *sql.DB, jwtSecret string, pub events.Publisher) http.Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	svc := stock.NewService(db)
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	partsHandler := &PartsHandler{DB: db}
	sitesHandler := &SitesHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db, Stock: svc, Events: pub}
	transfersHandler := &TransfersHandler{DB: db, Stock: svc, Events: pub}
	jobsHandler := &JobsHandler{DB: db, Approver: approval.New(svc), Events: pub}
	ledgerHandler := &LedgerHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))

	// Catalog: read (all roles), write (manager+).
	mux.Handle("GET /api/parts", authMW(http.HandlerFunc(partsHandler.List)))
	mux.Handle("POST /api/parts", authMW(requireManager(http.HandlerFunc(partsHandler.Create))))
	mux.Handle("GET /api/parts/{id}", authMW(http.HandlerFunc(partsHandler.Get)))
	mux.Handle("DELETE /api/parts/{id}", authMW(requireManager(http.HandlerFunc(partsHandler.Delete))))
	mux.Handle("GET /api/sites", authMW(http.HandlerFunc(sitesHandler.List)))
	mux.Handle("POST /api/sites", authMW(requireManager(http.HandlerFunc(sitesHandler.Create))))
	mux.Handle("DELETE /api/sites/{id}", authMW(requireManager(http.HandlerFunc(sitesHandler.Delete))))
	mux.Handle("GET /api/sites/{id}/inventory", authMW(http.HandlerFunc(sitesHandler.Inventory)))

	// Inventory: read and check (all), receive and adjust (manager+).
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("POST /api/inventory/check", authMW(http.HandlerFunc(inventoryHandler.Check)))
	mux.Handle("POST /api/inventory/receive", authMW(requireManager(http.HandlerFunc(inventoryHandler.Receive))))
	mux.Handle("POST /api/inventory/adjust", authMW(requireManager(http.HandlerFunc(inventoryHandler.Adjust))))

	// Transfers: request (all), execute (manager+).
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfersHandler.List)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("POST /api/transfers/{id}/execute", authMW(requireManager(http.HandlerFunc(transfersHandler.Execute))))

	// Jobs: open (all), approve and reject (manager+).
	mux.Handle("POST /api/jobs", authMW(http.HandlerFunc(jobsHandler.Create)))
	mux.Handle("GET /api/jobs/{id}", authMW(http.HandlerFunc(jobsHandler.Get)))
	mux.Handle("POST /api/jobs/{id}/approve", authMW(requireManager(http.HandlerFunc(jobsHandler.Approve))))
	mux.Handle("POST /api/jobs/{id}/reject", authMW(requireManager(http.HandlerFunc(jobsHandler.Reject))))

	// Ledger and reports (all roles).
	mux.Handle("GET /api/ledger", authMW(http.HandlerFunc(ledgerHandler.List)))
	mux.Handle("GET /api/reports/usage.xlsx", authMW(http.HandlerFunc(reportsHandler.Usage)))

	return mux
}
