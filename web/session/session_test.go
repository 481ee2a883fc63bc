package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	users map[string]*model.User
	err   error
	calls int
}

func (r *fakeResolver) Resolve(token string) (*model.User, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.users[token]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

// cookieJar replays the session cookie between requests against one engine.
type cookieJar struct {
	engine  *gin.Engine
	cookies []*http.Cookie
}

func newJar(register func(r *gin.Engine)) *cookieJar {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	register(engine)
	return &cookieJar{engine: engine}
}

func (j *cookieJar) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range j.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	j.engine.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		j.cookies = cookies
	}
	return w
}

func TestResolve(t *testing.T) {
	ivan := &model.User{Id: 1, Login: "ivan"}
	resolver := &fakeResolver{users: map[string]*model.User{"good": ivan}}

	var got *model.User
	jar := newJar(func(r *gin.Engine) {
		r.GET("/set/:token", func(c *gin.Context) {
			require.NoError(t, SetToken(sessions.Default(c), c.Param("token"), 0))
		})
		r.GET("/set-number", func(c *gin.Context) {
			s := sessions.Default(c)
			s.Set(tokenKey, 42)
			require.NoError(t, s.Save())
		})
		r.GET("/clear", func(c *gin.Context) {
			require.NoError(t, ClearSession(sessions.Default(c)))
		})
		r.GET("/whoami", func(c *gin.Context) {
			got = Resolve(sessions.Default(c), resolver)
		})
	})

	jar.get(t, "/whoami")
	assert.Nil(t, got)
	assert.Zero(t, resolver.calls, "no token, no lookup")

	jar.get(t, "/set/good")
	jar.get(t, "/whoami")
	assert.Equal(t, ivan, got)

	jar.get(t, "/set/stale")
	jar.get(t, "/whoami")
	assert.Nil(t, got)

	jar.get(t, "/set-number")
	calls := resolver.calls
	jar.get(t, "/whoami")
	assert.Nil(t, got)
	assert.Equal(t, calls, resolver.calls)

	jar.get(t, "/set/good")
	resolver.err = errors.New("store down")
	jar.get(t, "/whoami")
	assert.Nil(t, got)

	resolver.err = nil
	jar.get(t, "/clear")
	jar.get(t, "/whoami")
	assert.Nil(t, got)
}

func TestResolveWithoutResolver(t *testing.T) {
	var got *model.User
	jar := newJar(func(r *gin.Engine) {
		r.GET("/set", func(c *gin.Context) {
			require.NoError(t, SetToken(sessions.Default(c), "token", 0))
		})
		r.GET("/whoami", func(c *gin.Context) {
			got = Resolve(sessions.Default(c), nil)
		})
	})
	jar.get(t, "/set")
	jar.get(t, "/whoami")
	assert.Nil(t, got)
}

func TestGetToken(t *testing.T) {
	jar := newJar(func(r *gin.Engine) {
		r.GET("/", func(c *gin.Context) {
			s := sessions.Default(c)
			_, ok := GetToken(s)
			assert.False(t, ok)

			s.Set(tokenKey, "")
			_, ok = GetToken(s)
			assert.False(t, ok)

			s.Set(tokenKey, "abc")
			token, ok := GetToken(s)
			assert.True(t, ok)
			assert.Equal(t, "abc", token)
		})
	})
	jar.get(t, "/")
}

func TestClearSessionWithoutCookie(t *testing.T) {
	jar := newJar(func(r *gin.Engine) {
		r.GET("/", func(c *gin.Context) {
			assert.NoError(t, ClearSession(sessions.Default(c)))
		})
	})
	w := jar.get(t, "/")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentUserOutsideRequestContext(t *testing.T) {
	jar := newJar(func(r *gin.Engine) {
		r.GET("/", func(c *gin.Context) {
			assert.Nil(t, CurrentUser(c))
			assert.False(t, IsLogin(c))
			Forget(c)
			assert.Nil(t, CurrentUser(c))
		})
	})
	jar.get(t, "/")
}
