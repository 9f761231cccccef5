package auth

import (
	"natours/models"

	"github.com/gin-gonic/gin"
)

// User is authenticated and posseses one of the required roles
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper class that adds auth checks + User pre-loading
type Router struct {
	Base gin.IRouter
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc, roles []models.Role) {
	user := CurrentUser(c)
	if user == nil {
		var err error
		if user, err = authenticate(c, bearerToken(c), cookieToken(c)); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
	}
	if err := authorize(c, user, roles); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	handler(c, user)
}

func (cr *Router) handle(method, path string, handler HandlerFunc, roles []models.Role) {
	cr.Base.Handle(method, path, func(c *gin.Context) {
		cr.baseExec(c, handler, roles)
	})
}

func (cr *Router) POST(path string, handler HandlerFunc, roles ...models.Role) {
	cr.handle("POST", path, handler, roles)
}

func (cr *Router) GET(path string, handler HandlerFunc, roles ...models.Role) {
	cr.handle("GET", path, handler, roles)
}

func (cr *Router) PATCH(path string, handler HandlerFunc, roles ...models.Role) {
	cr.handle("PATCH", path, handler, roles)
}

func (cr *Router) DELETE(path string, handler HandlerFunc, roles ...models.Role) {
	cr.handle("DELETE", path, handler, roles)
}

// Group returns a router for a sub path sharing the same checks
func (cr *Router) Group(path string) *Router {
	return &Router{Base: cr.Base.Group(path)}
}
