package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-ops-api/internal/handler"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	"github.com/noah-isme/fleet-ops-api/pkg/config"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type stubTokens struct{}

// ValidateToken accepts "<role>-token" for each known role.
func (stubTokens) ValidateToken(token string) (*models.AccessClaims, error) {
	role := strings.TrimSuffix(token, "-token")
	switch models.UserRole(role) {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff:
		return &models.AccessClaims{UserID: "user-1", Role: models.UserRole(role)}, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:       config.EnvProduction,
		APIPrefix: "/api/v1",
		Dashboard: config.DashboardConfig{Enabled: true},
		Storage:   config.StorageConfig{Driver: config.StorageDriverSupabase},
	}
	metrics := service.NewMetricsService()
	return New(Options{Config: cfg, Tokens: stubTokens{}, Metrics: metrics}, Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Employees:     handler.NewEmployeeHandler(nil),
		Vehicles:      handler.NewVehicleHandler(nil),
		Schools:       handler.NewSchoolHandler(nil),
		Routes:        handler.NewRouteHandler(nil),
		Passengers:    handler.NewPassengerHandler(nil),
		CallLogs:      handler.NewCallLogHandler(nil),
		Incidents:     handler.NewIncidentHandler(nil),
		Certificates:  handler.NewCertificateHandler(nil),
		Dashboard:     handler.NewDashboardHandler(nil),
		Documents:     handler.NewDocumentHandler(nil, nil, nil),
		Notifications: handler.NewNotificationHandler(nil),
		Audit:         handler.NewAuditHandler(nil),
		Portal:        handler.NewPortalHandler(nil),
		Metrics:       handler.NewMetricsHandler(metrics),
	})
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterPublicEndpoints(t *testing.T) {
	r := testEngine()

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/docs/index.html", "").Code)
}

func TestRouterRequiresToken(t *testing.T) {
	r := testEngine()

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/employees", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/dashboard", "bogus").Code)
}

func TestRouterRoleGroups(t *testing.T) {
	r := testEngine()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"staff cannot create vehicles", http.MethodPost, "/api/v1/vehicles", "STAFF-token"},
		{"staff cannot delete routes", http.MethodDelete, "/api/v1/routes/rt-1", "STAFF-token"},
		{"staff cannot read audit logs", http.MethodGet, "/api/v1/audit-logs", "STAFF-token"},
		{"staff cannot queue a sweep", http.MethodPost, "/api/v1/notifications/expiry-sweep", "STAFF-token"},
		{"staff cannot upload", http.MethodPost, "/api/v1/uploads/driver/drv-1", "STAFF-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, serve(r, tc.method, tc.path, tc.token).Code)
		})
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	rec := serve(testEngine(), http.MethodGet, "/api/v1/boats", "ADMIN-token")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route not found")
}

func TestLocalFilesPrefix(t *testing.T) {
	assert.Equal(t, "/files", localFilesPrefix("http://localhost:8080/files"))
	assert.Equal(t, "/static/docs", localFilesPrefix("https://cdn.example.com/static/docs/"))
	assert.Equal(t, "", localFilesPrefix("https://cdn.example.com"))
}
