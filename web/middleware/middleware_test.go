package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})
	return engine
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := newEngine(RequestIDMiddleware())

	apitest.New().Handler(engine).
		Get("/").
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			id := res.Header.Get(RequestIDHeader)
			_, err := uuid.Parse(id)
			return err
		}).
		End()

	id := uuid.NewString()
	apitest.New().Handler(engine).
		Get("/").Header(RequestIDHeader, id).
		Expect(t).
		Header(RequestIDHeader, id).
		Body(id).
		End()

	apitest.New().Handler(engine).
		Get("/").Header(RequestIDHeader, "not-a-uuid").
		Expect(t).
		Assert(func(res *http.Response, _ *http.Request) error {
			assert.NotEqual(t, "not-a-uuid", res.Header.Get(RequestIDHeader))
			return nil
		}).
		End()
}

func TestDomainValidatorMiddleware(t *testing.T) {
	engine := newEngine(DomainValidatorMiddleware("seats.example.com"))

	for host, status := range map[string]int{
		"seats.example.com":      http.StatusOK,
		"Seats.Example.com:8080": http.StatusOK,
		"evil.example.com":       http.StatusForbidden,
	} {
		apitest.New().Handler(engine).
			Intercept(func(r *http.Request) { r.Host = host }).
			Get("/").
			Expect(t).
			Status(status).
			End()
	}
}
