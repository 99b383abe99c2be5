package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_MountsUnderVersionPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.AddRoutes(func(g *gin.RouterGroup) {
		g.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	})
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AppliesVersionedMiddleware(t *testing.T) {
	engine := gin.New()
	var touched bool
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		touched = true
		c.Next()
	})
	r.AddRoutes(func(g *gin.RouterGroup) {
		g.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	})
	r.Setup()

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.True(t, touched)
}

func TestDomainGroup_PrefixesRoutes(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("/inspections")
	group.AddRoutes(func(g *gin.RouterGroup) {
		g.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	})

	r := NewRouter(engine)
	r.AddRegistrar(group)
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inspections", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inspections/abc", nil))
	assert.Equal(t, "abc", w.Body.String())
}
