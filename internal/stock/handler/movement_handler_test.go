package handler

import (
	"net/http"
	"testing"

	"github.com/buildhub/sitestock/internal/stock/repository"
	"github.com/buildhub/sitestock/internal/stock/service"
	"github.com/buildhub/sitestock/internal/testutil"
)

func setupStockTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, "")
	handlers := NewHandlers(services, repos.Location)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	api.POST("/items", handlers.Item.Create)
	api.GET("/items", handlers.Item.List)
	api.GET("/items/:id", handlers.Item.Get)
	api.PUT("/items/:id/tracking-mode", handlers.Item.ChangeTrackingMode)
	api.GET("/items/:id/quantities", handlers.Item.Quantities)
	api.GET("/items/:id/locations", handlers.Item.LocationBreakdown)

	api.POST("/units", handlers.Unit.Register)
	api.GET("/units", handlers.Unit.List)
	api.PUT("/units/:id/status", handlers.Unit.TransitionStatus)

	api.POST("/movements", handlers.Movement.Apply)
	api.POST("/movements/receive", handlers.Movement.Receive)
	api.POST("/movements/issue", handlers.Movement.Issue)
	api.POST("/movements/transfer", handlers.Movement.Transfer)
	api.POST("/movements/count", handlers.Movement.Count)
	api.GET("/movements/transactions", handlers.Movement.Transactions)
	api.GET("/movements/alerts", handlers.Movement.Alerts)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createItem(t *testing.T, env *testutil.TestEnv, token, code, name, mode string) string {
	t.Helper()
	body := map[string]interface{}{
		"code":          code,
		"name":          name,
		"tracking_mode": mode,
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/items", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating item, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})["id"].(string)
}

func getQuantities(t *testing.T, env *testutil.TestEnv, token, itemID string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/items/"+itemID+"/quantities", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 getting quantities, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})
}

// TestBulkReceiveAllocateIssue walks a bulk item through receive,
// allocation, an over-issue that must be rejected, and a final issue.
func TestBulkReceiveAllocateIssue(t *testing.T) {
	env := setupStockTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	itemID := createItem(t, env, token, "PPE-HH-01", "安全帽", "bulk")

	// Receive 50
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "50",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	// Allocate 5
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements", map[string]interface{}{
		"item_id":         itemID,
		"location_id":     "loc-wh-001",
		"delta_allocated": "5",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 allocating, got %d: %s", w.Code, w.Body.String())
	}

	qty := getQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "50") || !testutil.DecimalEqual(qty["available"], "45") || !testutil.DecimalEqual(qty["allocated"], "5") {
		t.Fatalf("expected 50/45/5, got %v/%v/%v", qty["total"], qty["available"], qty["allocated"])
	}

	// Issuing 46 exceeds available 45 and must fail
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/issue", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "46",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-issue, got %d: %s", w.Code, w.Body.String())
	}

	// Ledger unchanged after the rejected issue
	qty = getQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "50") || !testutil.DecimalEqual(qty["available"], "45") || !testutil.DecimalEqual(qty["allocated"], "5") {
		t.Fatalf("ledger changed after rejected issue: %v/%v/%v", qty["total"], qty["available"], qty["allocated"])
	}

	// Issuing 45 succeeds
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/issue", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "45",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 issuing 45, got %d: %s", w.Code, w.Body.String())
	}

	qty = getQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "5") || !testutil.DecimalEqual(qty["available"], "0") || !testutil.DecimalEqual(qty["allocated"], "5") {
		t.Fatalf("expected 5/0/5, got %v/%v/%v", qty["total"], qty["available"], qty["allocated"])
	}
}

// TestTransferBetweenLocations moves bulk stock between two locations atomically.
func TestTransferBetweenLocations(t *testing.T) {
	env := setupStockTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	testutil.SeedLocation(t, env.DB, "loc-site-001", "SITE-01", "一号工地")
	itemID := createItem(t, env, token, "CEM-001", "水泥", "bulk")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "100",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	// Transfer 30 to the site
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/transfer", map[string]interface{}{
		"item_id":          itemID,
		"from_location_id": "loc-wh-001",
		"to_location_id":   "loc-site-001",
		"quantity":         "30",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 transferring, got %d: %s", w.Code, w.Body.String())
	}

	// Transferring more than on hand must fail
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/transfer", map[string]interface{}{
		"item_id":          itemID,
		"from_location_id": "loc-wh-001",
		"to_location_id":   "loc-site-001",
		"quantity":         "200",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-transfer, got %d: %s", w.Code, w.Body.String())
	}

	// Totals across locations unchanged, split 70/30
	qty := getQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "100") || !testutil.DecimalEqual(qty["available"], "100") {
		t.Fatalf("expected total 100 available 100, got %v/%v", qty["total"], qty["available"])
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/items/"+itemID+"/locations", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 getting breakdown, got %d: %s", w.Code, w.Body.String())
	}
	rows := testutil.ParseResponse(w)["data"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 location rows, got %d", len(rows))
	}
}

// TestCountStockVariance books a stock count and records the variance.
func TestCountStockVariance(t *testing.T) {
	env := setupStockTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	itemID := createItem(t, env, token, "NAIL-001", "钢钉", "bulk")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "80",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	// Count finds only 72 on the shelf
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/count", map[string]interface{}{
		"item_id":      itemID,
		"location_id":  "loc-wh-001",
		"observed_qty": "72",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 counting, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if !testutil.DecimalEqual(data["variance"], "-8") {
		t.Fatalf("expected variance -8, got %v", data["variance"])
	}

	qty := getQuantities(t, env, token, itemID)
	if !testutil.DecimalEqual(qty["total"], "72") {
		t.Fatalf("expected total 72 after count, got %v", qty["total"])
	}
}

// TestMovementRejectsSerializedItem verifies quantity movements are bulk-only.
func TestMovementRejectsSerializedItem(t *testing.T) {
	env := setupStockTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	itemID := createItem(t, env, token, "GEN-001", "发电机", "serialized")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "3",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bulk movement on serialized item, got %d: %s", w.Code, w.Body.String())
	}
}

// TestTransactionLog verifies every movement leaves an audit record.
func TestTransactionLog(t *testing.T) {
	env := setupStockTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")
	itemID := createItem(t, env, token, "SAND-001", "河沙", "bulk")

	for _, qty := range []string{"20", "15"} {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
			"item_id":     itemID,
			"location_id": "loc-wh-001",
			"quantity":    qty,
		}, token)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/movements/transactions?item_id="+itemID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing transactions, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["type"] != "RECEIPT" {
		t.Fatalf("expected RECEIPT type, got %v", first["type"])
	}
}

// TestLowStockAlerts flags bulk items whose available total fell below reorder level.
func TestLowStockAlerts(t *testing.T) {
	env := setupStockTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedLocation(t, env.DB, "loc-wh-001", "WH-01", "主仓库")

	body := map[string]interface{}{
		"code":          "GLOVE-001",
		"name":          "劳保手套",
		"tracking_mode": "bulk",
		"reorder_level": "10",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/items", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	itemID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/movements/receive", map[string]interface{}{
		"item_id":     itemID,
		"location_id": "loc-wh-001",
		"quantity":    "4",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 receiving, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/movements/alerts", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing alerts, got %d: %s", w.Code, w.Body.String())
	}
	alerts := testutil.ParseResponse(w)["data"].([]interface{})
	found := false
	for _, a := range alerts {
		if a.(map[string]interface{})["item_id"] == itemID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected low stock alert for item %s, got %v", itemID, alerts)
	}
}
