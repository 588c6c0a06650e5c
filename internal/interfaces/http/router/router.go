package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Router mounts domain groups under /api/<version>
type Router struct {
	engine  *gin.Engine
	version string
	groups  []*DomainGroup
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

// NewRouter creates a Router for engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a group for Setup
func (r *Router) Register(g *DomainGroup) *Router {
	r.groups = append(r.groups, g)
	return r
}

// Setup mounts every registered group on the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.basePath())
	for _, g := range r.groups {
		g.mount(api)
	}
}

// Routes lists "METHOD /full/path" for every registered route, in registration order
func (r *Router) Routes() []string {
	var out []string
	for _, g := range r.groups {
		out = g.collect(r.basePath(), out)
	}
	return out
}

func (r *Router) basePath() string {
	return "/api/" + r.version
}

// DomainGroup is a set of routes for one bounded context, optionally nested.
// Nil handlers and middleware are dropped so optional guards can be passed as-is.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group mounted at prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (g *DomainGroup) Name() string   { return g.name }
func (g *DomainGroup) Prefix() string { return g.prefix }

// Use adds middleware that runs for this group and its children
func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, withoutNil(middleware)...)
	return g
}

func (g *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodGet, p, handlers)
}

func (g *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodPost, p, handlers)
}

// Group adds a nested group
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	g.children = append(g.children, child)
	return child
}

// RegisterRoutes mounts the group directly on rg
func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	g.mount(rg)
}

func (g *DomainGroup) handle(method, p string, handlers []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: p, handlers: withoutNil(handlers)})
	return g
}

func (g *DomainGroup) mount(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.children {
		child.mount(group)
	}
}

func (g *DomainGroup) collect(base string, out []string) []string {
	base = path.Join(base, g.prefix)
	for _, rt := range g.routes {
		out = append(out, rt.method+" "+path.Join(base, rt.path))
	}
	for _, child := range g.children {
		out = child.collect(base, out)
	}
	return out
}

func withoutNil(handlers []gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
