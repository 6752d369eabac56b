package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yeisme/worksheethub/pkg/api"
	"github.com/yeisme/worksheethub/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRegisterGroupRoutes(t *testing.T) {
	e := api.RegisterGroup(gin.New(), api.Options{})

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /api/login",
		"POST /api/register",
		"GET /api/worksheets",
		"POST /api/worksheets/bulk",
		"POST /api/age-groups/:id/cate-cover",
		"POST /api/categories/:id/icon",
		"GET /api/admin/jobs",
		"GET /api/admin/assets/orphans",
		"GET /health/db",
		"GET /uploads/*filepath",
	} {
		assert.True(t, got[want], want)
	}

	// swagger 只在 debug 模式注册
	assert.False(t, got["GET /swagger/*any"])
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	e := gin.New()
	e.Use(middleware.RoleMiddleware(""))
	api.RegisterGroup(e, api.Options{AdminOnly: true})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/jobs", nil)
	req.Header.Set(middleware.DefaultRoleHeader, "user")

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
