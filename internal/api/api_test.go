package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/auth"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/db"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/events"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/report"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/stock"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

const testJWTSecret = "test-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.StockEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.StockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testServer struct {
	*httptest.Server
	db     *sql.DB
	token  string
	events *recordingPublisher
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	pub := &recordingPublisher{}
	server := httptest.NewServer(NewRouter(database, testJWTSecret, pub))
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin); err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}

	return &testServer{Server: server, db: database, token: loginResp["token"], events: pub}
}

// do sends an authenticated JSON request and decodes the response into out
// when out is non-nil. It returns the status code.
func (s *testServer) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, s.URL+path, s.token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// seed creates a part and a site through the API.
func (s *testServer) seed(t *testing.T) (partID, siteID int64) {
	t.Helper()
	var part model.Part
	if code := s.do(t, "POST", "/api/parts", map[string]string{"name": "Brake pad"}, &part); code != http.StatusCreated {
		t.Fatalf("create part: expected 201, got %d", code)
	}
	var site model.Site
	if code := s.do(t, "POST", "/api/sites", map[string]string{"name": "North course"}, &site); code != http.StatusCreated {
		t.Fatalf("create site: expected 201, got %d", code)
	}
	return part.ID, site.ID
}

func (s *testServer) receive(t *testing.T, partID int64, location string, qty int) {
	t.Helper()
	code := s.do(t, "POST", "/api/inventory/receive", map[string]any{
		"part_id": partID, "location": location, "quantity": qty,
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("receive: expected 201, got %d", code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret, nil))
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/parts")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret, nil))
	t.Cleanup(server.Close)

	// Create a regular user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.DefaultCost)
	user, err := store.CreateUser(ctx, database, "user1", string(hash), model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	userToken, _ := auth.GenerateToken(testJWTSecret, user.ID, "user1", model.RoleUser)

	// Regular user should not be able to create parts (manager+ required).
	req, _ := authRequest("POST", server.URL+"/api/parts", userToken, map[string]string{"name": "Test"})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user creating part, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Regular user should not access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", userToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A token claiming a higher role than stored is held to the stored role.
	forged, _ := auth.GenerateToken(testJWTSecret, user.ID, "user1", model.RoleAdmin)
	req, _ = authRequest("GET", server.URL+"/api/users", forged, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for stale role claim, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Tokens for users that do not exist are refused.
	ghost, _ := auth.GenerateToken(testJWTSecret, 999, "ghost", model.RoleAdmin)
	req, _ = authRequest("GET", server.URL+"/api/parts", ghost, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTransferFlow(t *testing.T) {
	s := setupTestServer(t)
	partID, siteID := s.seed(t)
	s.receive(t, partID, "central", 20)

	var transfer model.StockTransfer
	code := s.do(t, "POST", "/api/transfers", map[string]any{
		"destination_site_id": siteID,
		"items":               []map[string]any{{"part_id": partID, "quantity": 5}},
	}, &transfer)
	if code != http.StatusCreated {
		t.Fatalf("create transfer: expected 201, got %d", code)
	}
	if transfer.Status != model.TransferPending {
		t.Errorf("expected PENDING, got %q", transfer.Status)
	}

	var executed executeTransferResponse
	path := fmt.Sprintf("/api/transfers/%d/execute", transfer.ID)
	if code := s.do(t, "POST", path, nil, &executed); code != http.StatusOK {
		t.Fatalf("execute: expected 200, got %d", code)
	}
	if executed.Transfer.Status != model.TransferApproved {
		t.Errorf("expected APPROVED, got %q", executed.Transfer.Status)
	}
	if len(executed.Result.Transactions) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(executed.Result.Transactions))
	}

	var inv []model.Inventory
	s.do(t, "GET", fmt.Sprintf("/api/sites/%d/inventory", siteID), nil, &inv)
	if len(inv) != 1 || inv[0].Quantity != 5 {
		t.Errorf("expected 5 at site, got %+v", inv)
	}

	// Executing again is a conflict.
	var conflict stockErrorResponse
	if code := s.do(t, "POST", path, nil, &conflict); code != http.StatusConflict {
		t.Fatalf("re-execute: expected 409, got %d", code)
	}
	if conflict.Kind != "invalid_state" {
		t.Errorf("expected kind invalid_state, got %q", conflict.Kind)
	}

	types := s.events.types()
	if len(types) != 2 || types[0] != events.TypeStockReceived || types[1] != events.TypeTransferExecuted {
		t.Errorf("unexpected events: %v", types)
	}
}

func TestTransferMissingCentralRecord(t *testing.T) {
	s := setupTestServer(t)
	partID, siteID := s.seed(t)

	var transfer model.StockTransfer
	s.do(t, "POST", "/api/transfers", map[string]any{
		"destination_site_id": siteID,
		"items":               []map[string]any{{"part_id": partID, "quantity": 2}},
	}, &transfer)

	var conflict stockErrorResponse
	code := s.do(t, "POST", fmt.Sprintf("/api/transfers/%d/execute", transfer.ID), nil, &conflict)
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if conflict.Kind != "missing_inventory_record" {
		t.Errorf("expected kind missing_inventory_record, got %q", conflict.Kind)
	}
}

func TestJobApprovalInsufficientStock(t *testing.T) {
	s := setupTestServer(t)
	partID, siteID := s.seed(t)
	s.receive(t, partID, fmt.Sprintf("site:%d", siteID), 3)

	var job model.Job
	code := s.do(t, "POST", "/api/jobs", map[string]any{
		"type":    model.JobTypeMaintenance,
		"site_id": siteID,
		"vehicle": "GC-07",
		"parts":   []map[string]any{{"part_id": partID, "quantity": 5}},
	}, &job)
	if code != http.StatusCreated {
		t.Fatalf("create job: expected 201, got %d", code)
	}

	var conflict stockErrorResponse
	code = s.do(t, "POST", fmt.Sprintf("/api/jobs/%d/approve", job.ID), nil, &conflict)
	if code != http.StatusConflict {
		t.Fatalf("approve: expected 409, got %d", code)
	}
	if conflict.Kind != "insufficient_stock" {
		t.Errorf("expected kind insufficient_stock, got %q", conflict.Kind)
	}
	want := stock.Shortage{PartID: partID, PartName: "Brake pad", Requested: 5, Available: 3}
	if len(conflict.Shortages) != 1 || conflict.Shortages[0] != want {
		t.Errorf("unexpected shortages: %+v", conflict.Shortages)
	}

	var got model.Job
	s.do(t, "GET", fmt.Sprintf("/api/jobs/%d", job.ID), nil, &got)
	if got.Status != model.JobPending {
		t.Errorf("expected job to stay PENDING, got %q", got.Status)
	}
}

func TestPartRequestApproval(t *testing.T) {
	s := setupTestServer(t)
	partID, siteID := s.seed(t)
	s.receive(t, partID, "central", 10)

	var job model.Job
	s.do(t, "POST", "/api/jobs", map[string]any{
		"type":    model.JobTypePartRequest,
		"site_id": siteID,
		"parts":   []map[string]any{{"part_id": partID, "quantity": 4}},
	}, &job)
	if job.DocumentCode != model.MWRCode(job.ID) {
		t.Errorf("expected document code %q, got %q", model.MWRCode(job.ID), job.DocumentCode)
	}

	if code := s.do(t, "POST", fmt.Sprintf("/api/jobs/%d/approve", job.ID), nil, nil); code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d", code)
	}

	var entries []model.StockTransaction
	s.do(t, "GET", fmt.Sprintf("/api/ledger?ref_id=%d&ref_type=%s", job.ID, model.RefMWR), nil, &entries)
	if len(entries) != 1 || entries[0].NewBalance != 6 || entries[0].DocumentCode != job.DocumentCode {
		t.Errorf("unexpected MWR entries: %+v", entries)
	}

	var central []model.Inventory
	s.do(t, "GET", "/api/inventory?location=central", nil, &central)
	if len(central) != 1 || central[0].Quantity != 6 {
		t.Errorf("expected 6 at central, got %+v", central)
	}
}

func TestInventoryCheck(t *testing.T) {
	s := setupTestServer(t)
	partID, siteID := s.seed(t)

	var checks []stock.StockCheck
	code := s.do(t, "POST", "/api/inventory/check", map[string]any{
		"location": fmt.Sprintf("site:%d", siteID),
		"parts":    []map[string]any{{"part_id": partID, "quantity": 1}},
	}, &checks)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(checks) != 1 || checks[0].Sufficient {
		t.Errorf("unexpected checks: %+v", checks)
	}

	// Missing location is a bad request, not a check against central.
	code = s.do(t, "POST", "/api/inventory/check", map[string]any{
		"parts": []map[string]any{{"part_id": partID, "quantity": 1}},
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 without location, got %d", code)
	}
}

func TestUsageReport(t *testing.T) {
	s := setupTestServer(t)

	req, _ := authRequest("GET", s.URL+"/api/reports/usage.xlsx?from=2026-01-01&to=2026-12-31", s.token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("report request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != report.ContentType {
		t.Errorf("unexpected content type %q", ct)
	}

	req, _ = authRequest("GET", s.URL+"/api/reports/usage.xlsx?from=yesterday", s.token, nil)
	resp2, _ := http.DefaultClient.Do(req)
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", resp2.StatusCode)
	}
	resp2.Body.Close()
}

func TestReceiveAtUnknownSite(t *testing.T) {
	server := setupTestServer(t)
	partID, _ := server.seed(t)

	code := server.do(t, "POST", "/api/inventory/receive", map[string]any{
		"part_id": partID, "location": "site:999", "quantity": 3,
	}, nil)
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown site, got %d", code)
	}
}
