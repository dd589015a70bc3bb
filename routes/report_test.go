package routes

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestReportRoutePaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterReportRoutes(router.Group("/api"))

	registered := map[string]bool{}
	for _, route := range router.Routes() {
		if route.Method == http.MethodGet {
			registered[route.Path] = true
		}
	}

	want := []string{
		"/api/reports/stats",
		"/api/reports/providers",
		"/api/reports/services",
		"/api/reports/services/distribution",
		"/api/reports/distribution",
		"/api/reports/trends",
	}
	for _, path := range want {
		assert.True(t, registered[path], "missing route %s", path)
	}
}
