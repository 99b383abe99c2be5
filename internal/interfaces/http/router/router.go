// Package router wires handlers onto versioned route groups.
package router

import (
	"github.com/gin-gonic/gin"
)

// APIVersion is the current API version prefix.
const APIVersion = "/api/v1"

// RouteRegistrar registers a set of routes on a group.
type RouteRegistrar interface {
	Register(group *gin.RouterGroup)
}

// RouteRegistrarFunc adapts a function to the RouteRegistrar interface.
type RouteRegistrarFunc func(group *gin.RouterGroup)

// Register implements RouteRegistrar
func (f RouteRegistrarFunc) Register(group *gin.RouterGroup) {
	f(group)
}

// Router collects registrars and mounts them under the API version.
type Router struct {
	engine      *gin.Engine
	registrars  []RouteRegistrar
	middlewares []gin.HandlerFunc
}

// NewRouter creates a router on the given engine
func NewRouter(engine *gin.Engine) *Router {
	return &Router{engine: engine}
}

// Use adds middleware applied to every versioned route.
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middlewares = append(r.middlewares, middleware...)
	return r
}

// AddRegistrar adds a route registrar
func (r *Router) AddRegistrar(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// AddRoutes adds a registration function
func (r *Router) AddRoutes(fn func(group *gin.RouterGroup)) *Router {
	return r.AddRegistrar(RouteRegistrarFunc(fn))
}

// Setup mounts all registered routes under the version prefix.
func (r *Router) Setup() {
	api := r.engine.Group(APIVersion)
	api.Use(r.middlewares...)
	for _, registrar := range r.registrars {
		registrar.Register(api)
	}
}

// DomainGroup groups the routes of one bounded context under a common
// path prefix.
type DomainGroup struct {
	prefix string
	routes []func(group *gin.RouterGroup)
}

// NewDomainGroup creates a domain group with the given prefix
func NewDomainGroup(prefix string) *DomainGroup {
	return &DomainGroup{prefix: prefix}
}

// AddRoutes appends a registration function to the group
func (d *DomainGroup) AddRoutes(fn func(group *gin.RouterGroup)) *DomainGroup {
	d.routes = append(d.routes, fn)
	return d
}

// Register implements RouteRegistrar
func (d *DomainGroup) Register(group *gin.RouterGroup) {
	sub := group.Group(d.prefix)
	for _, fn := range d.routes {
		fn(sub)
	}
}
