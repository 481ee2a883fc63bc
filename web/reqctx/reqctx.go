// Package reqctx bundles the per-request resources every handler works with.
package reqctx

import (
	"net/http"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const contextKey = "REQUEST_CONTEXT"

// Context owns one pooled connection and the cookie session of a single request.
type Context struct {
	Request *http.Request
	Session sessions.Session

	conn *database.Conn
}

// DB returns the gorm handle bound to the request's connection.
func (c *Context) DB() *gorm.DB {
	return c.conn.DB()
}

// Release gives the connection back to the pool. Calling it again is a no-op.
func (c *Context) Release() error {
	return c.conn.Release()
}

// Middleware acquires a connection for every request and releases it when the
// handler chain returns or panics. The sessions middleware must run first.
// Acquisition failures are passed to onError and the chain is aborted.
func Middleware(pool *database.Pool, onError func(c *gin.Context, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := pool.Acquire(c.Request.Context())
		if err != nil {
			logger.Warning("acquire connection:", err)
			onError(c, err)
			c.Abort()
			return
		}

		rc := &Context{
			Request: c.Request,
			Session: sessions.Default(c),
			conn:    conn,
		}
		defer func() {
			if err := rc.Release(); err != nil {
				logger.Warning("release connection:", err)
			}
		}()

		c.Set(contextKey, rc)
		c.Next()
	}
}

// Get returns the context installed by Middleware, or nil outside of it.
func Get(c *gin.Context) *Context {
	if v, ok := c.Get(contextKey); ok {
		if rc, ok := v.(*Context); ok {
			return rc
		}
	}
	return nil
}
