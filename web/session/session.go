package session

import (
	"net/http"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/logger"
	"github.com/seatbook/seatbook/web/reqctx"
	"github.com/seatbook/seatbook/web/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	tokenKey = "token"
	userKey  = "CURRENT_USER"
)

type resolved struct{ user *model.User }

// Resolver looks up the user bound to a session token.
type Resolver interface {
	Resolve(token string) (*model.User, error)
}

// SetToken stores the session token in the cookie. maxAge is in seconds; zero
// leaves the cookie without an expiry.
func SetToken(s sessions.Session, token string, maxAge int) error {
	s.Set(tokenKey, token)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   config.IsSecureCookie(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}

// GetToken reads the token from the cookie. Missing or non-string values are
// reported as absent.
func GetToken(s sessions.Session) (string, bool) {
	token, ok := s.Get(tokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ClearSession drops the token and expires the cookie.
func ClearSession(s sessions.Session) error {
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		Secure:   config.IsSecureCookie(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}

// Resolve returns the user the cookie session belongs to, or nil. Lookup
// failures of any kind are treated as an anonymous request.
func Resolve(s sessions.Session, r Resolver) *model.User {
	token, ok := GetToken(s)
	if !ok || r == nil {
		return nil
	}
	user, err := r.Resolve(token)
	if err != nil {
		logger.Debug("session not resolved:", err)
		return nil
	}
	return user
}

// CurrentUser resolves the user of the current request once and remembers the
// result for the rest of the request.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if r, ok := v.(resolved); ok {
			return r.user
		}
	}

	var user *model.User
	if rc := reqctx.Get(c); rc != nil {
		user = Resolve(rc.Session, service.NewSessionService(rc.DB()))
	}
	c.Set(userKey, resolved{user})
	return user
}

// Forget drops the remembered user, so the next CurrentUser call resolves again.
func Forget(c *gin.Context) {
	c.Set(userKey, nil)
}

func IsLogin(c *gin.Context) bool {
	return CurrentUser(c) != nil
}
