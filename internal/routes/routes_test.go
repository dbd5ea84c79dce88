package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment/appointmenttest"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

const testSecret = "routes-test-secret"

func buildTestApp(repo *appointmenttest.Memory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Deps{
		Config: &config.Config{JWTSecret: testSecret, LockTTL: 5 * time.Minute},
		Repo:   repo,
	})
	return r
}

func signTestToken(t *testing.T, tenantID uint, role string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, &models.User{ID: 1, TenantID: tenantID, Role: role}, time.Now())
	require.NoError(t, err)
	return token
}

func call(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBackOfficeRequiresToken(t *testing.T) {
	r := buildTestApp(appointmenttest.Seed())

	for _, path := range []string{"/api/me/services", "/api/me/customers", "/api/me/branches"} {
		assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, path, "", nil).Code, path)
	}
}

func TestAdminRoutesRBAC(t *testing.T) {
	repo := appointmenttest.Seed()
	r := buildTestApp(repo)

	barber := signTestToken(t, 1, models.RoleBarber)
	owner := signTestToken(t, 1, models.RoleOwner)
	admin := signTestToken(t, 1, models.RoleAdmin)

	// any staff member reads the catalog
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/me/services", barber, nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/me/customers", barber, nil).Code)

	closed := gin.H{"work_date": "2025-12-25", "is_closed": true}

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/me/branches", barber, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/me/services", barber, gin.H{"name": "Barba", "duration_min": 20}).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/me/branches/1/overrides", barber, closed).Code)
	assert.Empty(t, repo.Overrides)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/me/branches", owner, nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/api/me/branches/1/overrides", admin, closed).Code)
	assert.Len(t, repo.Overrides, 1)
}

func TestAdminRoutesScopedToTokenTenant(t *testing.T) {
	repo := appointmenttest.Seed()
	repo.Tenants[2] = models.Tenant{ID: 2, Name: "Tesoura", Slug: "tesoura", Timezone: "UTC"}
	r := buildTestApp(repo)

	outsider := signTestToken(t, 2, models.RoleOwner)

	w := call(r, http.MethodGet, "/api/me/branches/1/working-hours", outsider, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPatch, "/api/me/services/1", outsider, gin.H{"active": false})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, repo.Services[1].Active)

	w = call(r, http.MethodGet, "/api/me/services", outsider, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}
