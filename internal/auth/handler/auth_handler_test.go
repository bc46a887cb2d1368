package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/buildhub/sitestock/internal/auth/entity"
	"github.com/buildhub/sitestock/internal/auth/repository"
	"github.com/buildhub/sitestock/internal/auth/service"
	"github.com/buildhub/sitestock/internal/config"
	"github.com/buildhub/sitestock/internal/middleware"
	"github.com/buildhub/sitestock/internal/testutil"
)

func setupAuthTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.AccessTokenExpire = 2 * time.Hour
	cfg.JWT.RefreshTokenExpire = 168 * time.Hour
	cfg.JWT.Issuer = "sitestock"

	userRepo := repository.NewUserRepository(db)
	svc := service.NewAuthService(userRepo, nil, cfg)
	h := NewAuthHandler(svc)

	router := testutil.SetupRouter()
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/register", h.Register)
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/auth/me", h.Me)
	api.POST("/auth/password", h.ChangePassword)
	api.POST("/auth/users/:id/roles", middleware.RequireRole("admin"), h.AssignRole)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupAuthTest(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "foreman01",
		"name":     "张工",
		"email":    "foreman01@example.com",
		"password": "s3cret-pass",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if _, exposed := data["password_hash"]; exposed {
		t.Fatal("password hash must not be serialized")
	}

	// Duplicate username rejected
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "foreman01",
		"name":     "李工",
		"password": "another-pass",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d: %s", w.Code, w.Body.String())
	}

	// Login with correct password
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "foreman01",
		"password": "s3cret-pass",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 logging in, got %d: %s", w.Code, w.Body.String())
	}
	login := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if login["access_token"] == nil || login["access_token"] == "" {
		t.Fatal("expected access token")
	}

	// Wrong password rejected
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "foreman01",
		"password": "wrong",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCurrentUserAndChangePassword(t *testing.T) {
	env := setupAuthTest(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "storekeeper",
		"name":     "仓管员",
		"password": "initial-pass",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", w.Code, w.Body.String())
	}
	userID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	token := testutil.GenerateTestToken(userID, "仓管员", "", nil, []string{"*"})

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for /auth/me, got %d: %s", w.Code, w.Body.String())
	}
	me := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if me["username"] != "storekeeper" {
		t.Fatalf("expected username storekeeper, got %v", me["username"])
	}

	// Change password with wrong old password fails
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/password", map[string]interface{}{
		"old_password": "wrong",
		"new_password": "brand-new-pass",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong old password, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/password", map[string]interface{}{
		"old_password": "initial-pass",
		"new_password": "brand-new-pass",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 changing password, got %d: %s", w.Code, w.Body.String())
	}

	// Old password no longer works
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "storekeeper",
		"password": "initial-pass",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with old password, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "storekeeper",
		"password": "brand-new-pass",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with new password, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAssignRoleRequiresAdmin(t *testing.T) {
	env := setupAuthTest(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "mechanic",
		"name":     "机修工",
		"password": "initial-pass",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", w.Code, w.Body.String())
	}
	userID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	role := &entity.Role{ID: "role-keeper", Code: "storekeeper", Name: "仓管员"}
	if err := env.DB.Create(role).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}

	// 非管理员不能分配角色
	viewer := testutil.GenerateTestToken("viewer-001", "访客", "", []string{"viewer"}, nil)
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/users/"+userID+"/roles", map[string]interface{}{
		"role_id": role.ID,
	}, viewer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d: %s", w.Code, w.Body.String())
	}

	admin := testutil.DefaultTestToken()
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/users/"+userID+"/roles", map[string]interface{}{
		"role_id": role.ID,
	}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 assigning role, got %d: %s", w.Code, w.Body.String())
	}

	// 重复绑定幂等
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/users/"+userID+"/roles", map[string]interface{}{
		"role_id": role.ID,
	}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat assignment, got %d: %s", w.Code, w.Body.String())
	}

	var bound int64
	env.DB.Table("user_roles").Where("user_id = ?", userID).Count(&bound)
	if bound != 1 {
		t.Fatalf("expected 1 role binding, got %d", bound)
	}

	// 不存在的用户
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/users/no-such-user/roles", map[string]interface{}{
		"role_id": role.ID,
	}, admin)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d: %s", w.Code, w.Body.String())
	}
}
