package handler

import (
	"net/http"
	"testing"

	"github.com/buildhub/sitestock/internal/hire/repository"
	"github.com/buildhub/sitestock/internal/hire/service"
	projectrepo "github.com/buildhub/sitestock/internal/project/repository"
	stockhandler "github.com/buildhub/sitestock/internal/stock/handler"
	stockrepo "github.com/buildhub/sitestock/internal/stock/repository"
	stocksvc "github.com/buildhub/sitestock/internal/stock/service"
	"github.com/buildhub/sitestock/internal/testutil"
)

func setupBookingTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	stockRepos := stockrepo.NewRepositories(db)
	stockServices := stocksvc.NewServices(stockRepos, nil, "")
	stockHandlers := stockhandler.NewHandlers(stockServices, stockRepos.Location)

	projRepo := projectrepo.NewProjectRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	bookingSvc := service.NewBookingService(
		db, bookingRepo, projRepo, stockRepos.Item, stockRepos.Transaction,
		stockServices.Movement, stockServices.Unit)
	bookingHandler := NewBookingHandler(bookingSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	api.POST("/items", stockHandlers.Item.Create)
	api.GET("/items/:id/quantities", stockHandlers.Item.Quantities)
	api.POST("/units", stockHandlers.Unit.Register)
	api.GET("/units/:id", stockHandlers.Unit.Get)
	api.POST("/movements/receive", stockHandlers.Movement.Receive)

	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/dispatch", bookingHandler.Dispatch)
	api.POST("/bookings/:id/return", bookingHandler.Return)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createBookingItem(t *testing.T, env *testutil.TestEnv, token, code, mode string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/items", map[string]interface{}{
		"code":          code,
		"name":          "测试物资 " + code,
		"tracking_mode": mode,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating item, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

func bookingQuantities(t *testing.T, env *testutil.TestEnv, token, itemID string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/items/"+itemID+"/quantities", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 getting quantities, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

// TestBulkBookingLifecycle reserves bulk stock, dispatches and returns it.
func TestBulkBookingLifecycle(t *testing.T) {
	env := setupBookingTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	testutil.SeedProject(t, env.DB, "proj-001", "PRJ-001", "办公楼项目")
	itemID := createBookingItem(t, env, token, "SCAF-001", "bulk")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "20",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	// Reserve 8
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"project_id":  "proj-001",
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "8",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating booking, got %d: %s", w.Code, w.Body.String())
	}
	bookingID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	qty := bookingQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "20") || !testutil.DecimalEqual(qty["available"], "12") || !testutil.DecimalEqual(qty["allocated"], "8") {
		t.Fatalf("expected 20/12/8 after reserve, got %v/%v/%v", qty["total"], qty["available"], qty["allocated"])
	}

	// Reserving more than available must fail
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"project_id":  "proj-001",
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "13",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-reserve, got %d: %s", w.Code, w.Body.String())
	}

	// Dispatch: on hand drops, allocation released
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/dispatch", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 dispatching, got %d: %s", w.Code, w.Body.String())
	}
	qty = bookingQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "12") || !testutil.DecimalEqual(qty["available"], "12") || !testutil.DecimalEqual(qty["allocated"], "0") {
		t.Fatalf("expected 12/12/0 after dispatch, got %v/%v/%v", qty["total"], qty["available"], qty["allocated"])
	}

	// Dispatching again is a state error
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/dispatch", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for double dispatch, got %d: %s", w.Code, w.Body.String())
	}

	// Return: stock comes back
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/return", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 returning, got %d: %s", w.Code, w.Body.String())
	}
	qty = bookingQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "20") || !testutil.DecimalEqual(qty["available"], "20") {
		t.Fatalf("expected 20/20 after return, got %v/%v", qty["total"], qty["available"])
	}
}

// TestBulkBookingCancelReleasesAllocation cancels a reservation and frees the stock.
func TestBulkBookingCancelReleasesAllocation(t *testing.T) {
	env := setupBookingTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	testutil.SeedProject(t, env.DB, "proj-001", "PRJ-001", "办公楼项目")
	itemID := createBookingItem(t, env, token, "PIPE-001", "bulk")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "10",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"project_id":  "proj-001",
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "6",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating booking, got %d: %s", w.Code, w.Body.String())
	}
	bookingID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 cancelling, got %d: %s", w.Code, w.Body.String())
	}

	qty := bookingQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["available"], "10") || !testutil.DecimalEqual(qty["allocated"], "0") {
		t.Fatalf("expected allocation released, got available %v allocated %v", qty["available"], qty["allocated"])
	}
}

// TestSerializedBookingLifecycle hires a serialized unit out and back.
func TestSerializedBookingLifecycle(t *testing.T) {
	env := setupBookingTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	testutil.SeedProject(t, env.DB, "proj-001", "PRJ-001", "办公楼项目")
	itemID := createBookingItem(t, env, token, "EXC-001", "serialized")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/units", map[string]interface{}{
		"item_id":       itemID,
		"serial_number": "EXC-SN-001",
		"location_id":   "loc-wh-001",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering unit, got %d: %s", w.Code, w.Body.String())
	}
	unitID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Booking a serialized item without naming a unit fails
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"project_id":  "proj-001",
		"item_id":     itemID,
		"location_id": "loc-wh-001",
	}, token)
	if w.Code == http.StatusCreated {
		t.Fatalf("expected error without unit_id, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"project_id":  "proj-001",
		"item_id":     itemID,
		"unit_id":     unitID,
		"location_id": "loc-wh-001",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating booking, got %d: %s", w.Code, w.Body.String())
	}
	bookingID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Dispatch puts the unit on hire
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/dispatch", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 dispatching, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/units/"+unitID, nil, token)
	unit := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if unit["status"] != "on_hire" {
		t.Fatalf("expected unit on_hire, got %v", unit["status"])
	}

	// Return brings it back, recording the condition seen at the gate
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/return",
		map[string]interface{}{"condition": "fair"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 returning, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/units/"+unitID, nil, token)
	unit = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if unit["status"] != "available" {
		t.Fatalf("expected unit available after return, got %v", unit["status"])
	}
	if unit["condition"] != "fair" {
		t.Fatalf("expected condition fair, got %v", unit["condition"])
	}
}

// TestRejectedReservationLeavesNoRows 超量预留被拒后，
// 租赁单与预留流水一并回滚，台账无占用残留。
func TestRejectedReservationLeavesNoRows(t *testing.T) {
	env := setupBookingTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	testutil.SeedProject(t, env.DB, "proj-001", "PRJ-001", "办公楼项目")
	itemID := createBookingItem(t, env, token, "PROP-002", "bulk")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "10",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"project_id":  "proj-001",
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "13",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-reservation, got %d: %s", w.Code, w.Body.String())
	}

	var bookings int64
	env.DB.Table("hire_bookings").Count(&bookings)
	if bookings != 0 {
		t.Fatalf("expected no booking rows, got %d", bookings)
	}

	var movements int64
	env.DB.Table("stock_transactions").Where("reference_type = ?", "BOOKING").Count(&movements)
	if movements != 0 {
		t.Fatalf("expected no booking movements, got %d", movements)
	}

	qty := bookingQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["available"], "10") || !testutil.DecimalEqual(qty["allocated"], "0") {
		t.Fatalf("expected untouched ledger, got available %v allocated %v", qty["available"], qty["allocated"])
	}
}
