package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-tenant-catalog/internal/handler"
	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/repository"
	"go-tenant-catalog/internal/security/ratelimit"
	"go-tenant-catalog/internal/service"
	"go-tenant-catalog/internal/testutil"
	"go-tenant-catalog/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

type testEnv struct {
	app         *fiber.App
	tenantRepo  repository.TenantRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	tokens      *jwt.Manager
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)

	env := &testEnv{
		tenantRepo:  repository.NewTenantRepo(db),
		userRepo:    repository.NewUserRepo(db),
		productRepo: repository.NewProductRepo(db),
		tokens:      jwt.NewManager("test-secret", 5*time.Minute, time.Hour),
	}
	limiter := ratelimit.NewMemoryLimiter(3, time.Minute)
	t.Cleanup(limiter.Stop)

	env.app = handler.NewApp("catalog-test", handler.Services{
		DB:      db,
		Auth:    service.NewAuthService(env.userRepo, env.tokens, limiter, nil),
		Catalog: service.NewCatalogService(env.productRepo, nil, nil),
		Tenants: service.NewTenantService(env.tenantRepo),
		Users:   service.NewUserService(env.userRepo, env.tenantRepo),
	})
	return env
}

func (e *testEnv) tenant(t *testing.T, name string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: name}
	require.NoError(t, e.tenantRepo.Create(context.Background(), tenant))
	return tenant
}

func (e *testEnv) user(t *testing.T, username string, tenant *model.Tenant) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		IsActive:     true,
		TokenVersion: uuid.NewString(),
	}
	if tenant != nil {
		user.TenantID = &tenant.ID
		user.Tenant = tenant
	} else {
		user.IsSuperuser = true
		user.IsStaff = true
	}
	require.NoError(t, user.SetPassword(testPassword))
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func (e *testEnv) token(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := e.tokens.Generate(jwt.Subject{
		UserID:       user.ID,
		Username:     user.Username,
		TenantID:     user.TenantID,
		IsSuperuser:  user.IsSuperuser,
		TokenVersion: user.TokenVersion,
	}, jwt.TokenAccess)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func widget(name string) map[string]interface{} {
	return map[string]interface{}{"name": name, "price": "10.00", "quantity": 5}
}

func TestProductAPI_SameNameAcrossTenants(t *testing.T) {
	env := setup(t)
	tenantA := env.tenant(t, "Tenant A")
	tenantB := env.tenant(t, "Tenant B")
	tokenA := env.token(t, env.user(t, "alice", tenantA))
	tokenB := env.token(t, env.user(t, "bob", tenantB))

	status, body := env.do(t, http.MethodPost, "/api/products/", tokenA, widget("Widget"))
	require.Equal(t, http.StatusCreated, status, string(body))
	productA := decode[model.ProductResponse](t, body)
	assert.Equal(t, "Tenant A", productA.Tenant)
	assert.Equal(t, "10.00", productA.Price)

	status, body = env.do(t, http.MethodPost, "/api/products/", tokenB, widget("Widget"))
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "Tenant B", decode[model.ProductResponse](t, body).Tenant)

	status, body = env.do(t, http.MethodPost, "/api/products/", tokenA, widget("Widget"))
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t,
		map[string][]string{"name": {"Product with name 'Widget' already exists for the tenant 'Tenant A'."}},
		decode[map[string][]string](t, body))

	status, _ = env.do(t, http.MethodGet, "/api/products/"+productA.ID.String()+"/", tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/api/products", tokenB, nil)
	require.Equal(t, http.StatusOK, status)
	listB := decode[[]model.ProductResponse](t, body)
	require.Len(t, listB, 1)
	assert.Equal(t, "Tenant B", listB[0].Tenant)
}

func TestProductAPI_RequiresAuthentication(t *testing.T) {
	env := setup(t)

	status, body := env.do(t, http.MethodGet, "/api/products/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, decode[map[string]string](t, body), "detail")

	status, _ = env.do(t, http.MethodGet, "/api/products/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProductAPI_CreateIgnoresTenantInBody(t *testing.T) {
	env := setup(t)
	tenantA := env.tenant(t, "Tenant A")
	tenantB := env.tenant(t, "Tenant B")
	tokenA := env.token(t, env.user(t, "alice", tenantA))

	body := widget("Widget")
	body["tenant"] = tenantB.ID.String()
	status, resp := env.do(t, http.MethodPost, "/api/products/", tokenA, body)
	require.Equal(t, http.StatusCreated, status, string(resp))
	assert.Equal(t, "Tenant A", decode[model.ProductResponse](t, resp).Tenant)

	products, err := env.productRepo.FindAllByTenant(context.Background(), tenantB.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductAPI_SuperuserSeesNothing(t *testing.T) {
	env := setup(t)
	tenantA := env.tenant(t, "Tenant A")
	tokenA := env.token(t, env.user(t, "alice", tenantA))
	tokenRoot := env.token(t, env.user(t, "root", nil))

	status, body := env.do(t, http.MethodPost, "/api/products/", tokenA, widget("Widget"))
	require.Equal(t, http.StatusCreated, status)
	id := decode[model.ProductResponse](t, body).ID.String()

	status, body = env.do(t, http.MethodGet, "/api/products/", tokenRoot, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	status, _ = env.do(t, http.MethodGet, "/api/products/"+id, tokenRoot, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/products/", tokenRoot, widget("Gadget"))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodDelete, "/api/products/"+id, tokenRoot, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductAPI_UpdateAndDelete(t *testing.T) {
	env := setup(t)
	tenantA := env.tenant(t, "Tenant A")
	tenantB := env.tenant(t, "Tenant B")
	tokenA := env.token(t, env.user(t, "alice", tenantA))
	tokenB := env.token(t, env.user(t, "bob", tenantB))

	_, body := env.do(t, http.MethodPost, "/api/products/", tokenA, widget("Widget"))
	widgetID := decode[model.ProductResponse](t, body).ID.String()
	_, body = env.do(t, http.MethodPost, "/api/products/", tokenA, widget("Gadget"))
	gadgetID := decode[model.ProductResponse](t, body).ID.String()

	// partial update keeps the other fields
	status, body := env.do(t, http.MethodPatch, "/api/products/"+widgetID+"/", tokenA, map[string]interface{}{"quantity": 7})
	require.Equal(t, http.StatusOK, status, string(body))
	patched := decode[model.ProductResponse](t, body)
	assert.Equal(t, int64(7), patched.Quantity)
	assert.Equal(t, "Widget", patched.Name)

	// renaming onto a sibling collides
	status, body = env.do(t, http.MethodPut, "/api/products/"+gadgetID, tokenA, widget("Widget"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[map[string][]string](t, body), "name")

	// keeping its own name does not
	status, _ = env.do(t, http.MethodPut, "/api/products/"+gadgetID, tokenA, widget("Gadget"))
	assert.Equal(t, http.StatusOK, status)

	// another tenant cannot touch it
	status, _ = env.do(t, http.MethodPatch, "/api/products/"+widgetID, tokenB, map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodDelete, "/api/products/"+widgetID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodDelete, "/api/products/"+widgetID+"/", tokenA, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(t, http.MethodGet, "/api/products/"+widgetID, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductAPI_DescriptionPresence(t *testing.T) {
	env := setup(t)
	tokenA := env.token(t, env.user(t, "alice", env.tenant(t, "Tenant A")))

	body := widget("Widget")
	body["description"] = "blue"
	status, resp := env.do(t, http.MethodPost, "/api/products/", tokenA, body)
	require.Equal(t, http.StatusCreated, status, string(resp))
	id := decode[model.ProductResponse](t, resp).ID.String()

	// PUT without description keeps it
	status, resp = env.do(t, http.MethodPut, "/api/products/"+id+"/", tokenA, widget("Widget"))
	require.Equal(t, http.StatusOK, status, string(resp))
	kept := decode[model.ProductResponse](t, resp)
	require.NotNil(t, kept.Description)
	assert.Equal(t, "blue", *kept.Description)

	// explicit null clears it
	status, resp = env.do(t, http.MethodPatch, "/api/products/"+id+"/", tokenA, map[string]interface{}{"description": nil})
	require.Equal(t, http.StatusOK, status, string(resp))
	assert.Nil(t, decode[model.ProductResponse](t, resp).Description)
}

func TestProductAPI_Validation(t *testing.T) {
	env := setup(t)
	tokenA := env.token(t, env.user(t, "alice", env.tenant(t, "Tenant A")))

	status, body := env.do(t, http.MethodPost, "/api/products/", tokenA, map[string]interface{}{
		"price":    "1.005",
		"quantity": -1,
	})
	require.Equal(t, http.StatusBadRequest, status)
	errs := decode[map[string][]string](t, body)
	assert.Equal(t, []string{"This field is required."}, errs["name"])
	assert.Equal(t, []string{"Ensure that there are no more than 2 decimal places."}, errs["price"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, errs["quantity"])

	status, _ = env.do(t, http.MethodPost, "/api/products/", tokenA, map[string]interface{}{
		"name": "", "price": "1.00", "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProductAPI_MalformedIDIsNotFound(t *testing.T) {
	env := setup(t)
	tokenA := env.token(t, env.user(t, "alice", env.tenant(t, "Tenant A")))

	status, body := env.do(t, http.MethodGet, "/api/products/not-a-uuid/", tokenA, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found.", decode[map[string]string](t, body)["detail"])
}

func TestAuthAPI_LoginAndRefresh(t *testing.T) {
	env := setup(t)
	env.user(t, "alice", env.tenant(t, "Tenant A"))

	status, body := env.do(t, http.MethodPost, "/api/login/", "", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	pair := decode[service.TokenPair](t, body)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	status, _ = env.do(t, http.MethodGet, "/api/products/", pair.Access, nil)
	assert.Equal(t, http.StatusOK, status)

	// refresh tokens are not accepted as access tokens
	status, _ = env.do(t, http.MethodGet, "/api/products/", pair.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotEmpty(t, decode[service.AccessToken](t, body).Access)

	status, _ = env.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair.Access})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthAPI_LoginFailures(t *testing.T) {
	env := setup(t)
	env.user(t, "alice", env.tenant(t, "Tenant A"))

	status, body := env.do(t, http.MethodPost, "/api/login/", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[map[string][]string](t, body), "password")

	for i := 0; i < 3; i++ {
		status, _ = env.do(t, http.MethodPost, "/api/login/", "", map[string]string{
			"username": "alice", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	// limiter allows three attempts per window
	status, _ = env.do(t, http.MethodPost, "/api/login/", "", map[string]string{
		"username": "alice", "password": testPassword,
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestAdminAPI_RequiresSuperuser(t *testing.T) {
	env := setup(t)
	tokenA := env.token(t, env.user(t, "alice", env.tenant(t, "Tenant A")))
	tokenRoot := env.token(t, env.user(t, "root", nil))

	status, _ := env.do(t, http.MethodGet, "/api/admin/tenants", tokenA, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodGet, "/api/admin/tenants?search=tenant", tokenRoot, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Tenant](t, body), 1)
}

func TestAdminAPI_UserTenancyInvariant(t *testing.T) {
	env := setup(t)
	tenantA := env.tenant(t, "Tenant A")
	tokenRoot := env.token(t, env.user(t, "root", nil))

	status, body := env.do(t, http.MethodPost, "/api/admin/users", tokenRoot, map[string]interface{}{
		"username": "orphan", "password": testPassword,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{model.ErrTenantRequired.Error()}, decode[map[string][]string](t, body)["tenant"])

	status, body = env.do(t, http.MethodPost, "/api/admin/users", tokenRoot, map[string]interface{}{
		"username": "boss", "password": testPassword, "is_superuser": true, "tenant_id": tenantA.ID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{model.ErrTenantForbidden.Error()}, decode[map[string][]string](t, body)["tenant"])

	status, body = env.do(t, http.MethodPost, "/api/admin/users", tokenRoot, map[string]interface{}{
		"username": "carol", "password": testPassword, "tenant_id": tenantA.ID,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[model.UserResponse](t, body)
	require.NotNil(t, created.Tenant)
	assert.Equal(t, "Tenant A", *created.Tenant)

	status, body = env.do(t, http.MethodPost, "/api/admin/users", tokenRoot, map[string]interface{}{
		"username": "carol", "password": testPassword, "tenant_id": tenantA.ID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[map[string][]string](t, body), "username")
}

func TestAdminAPI_DeleteTenantCascades(t *testing.T) {
	env := setup(t)
	tenantA := env.tenant(t, "Tenant A")
	alice := env.user(t, "alice", tenantA)
	tokenA := env.token(t, alice)
	tokenRoot := env.token(t, env.user(t, "root", nil))

	status, _ := env.do(t, http.MethodPost, "/api/products/", tokenA, widget("Widget"))
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(t, http.MethodPost, "/api/admin/tenants", tokenRoot, map[string]string{"name": "Tenant A"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[map[string][]string](t, body), "name")

	status, _ = env.do(t, http.MethodDelete, "/api/admin/tenants/"+tenantA.ID.String(), tokenRoot, nil)
	require.Equal(t, http.StatusNoContent, status)

	_, err := env.userRepo.FindByID(context.Background(), alice.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	products, err := env.productRepo.FindAllByTenant(context.Background(), tenantA.ID)
	require.NoError(t, err)
	assert.Empty(t, products)

	// the deleted user's token stops working
	status, _ = env.do(t, http.MethodGet, "/api/products/", tokenA, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealth(t *testing.T) {
	env := setup(t)
	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(body))
}
