package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/logger"
	"github.com/seatbook/seatbook/web/entity"
	"github.com/seatbook/seatbook/web/form"
	"github.com/seatbook/seatbook/web/reqctx"
	"github.com/seatbook/seatbook/web/service"
	"github.com/seatbook/seatbook/web/session"

	"github.com/gin-gonic/gin"
)

// IndexController handles registration, login and logout.
type IndexController struct {
	BaseController

	validator *form.Validator
	lifetime  time.Duration
}

// NewIndexController creates a new IndexController and initializes its routes.
// Sessions issued on login live for lifetime, zero meaning until logout.
func NewIndexController(g *gin.RouterGroup, validator *form.Validator, lifetime time.Duration) *IndexController {
	a := &IndexController{validator: validator, lifetime: lifetime}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/register", a.registerPage)
	g.POST("/register", a.register)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.GET("/logout", a.logout)
	g.POST("/logout", a.logout)
}

func (a *IndexController) registerPage(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	html(c, "register.html", entity.RegisterPage{
		Page: entity.Page{Title: I18nWeb(c, "pages.register.title")},
	})
}

func (a *IndexController) register(c *gin.Context) {
	var f form.RegisterForm
	if err := c.ShouldBind(&f); err != nil {
		logger.Debug("bind register form:", err)
	}

	users := service.NewUserService(a.db(c))
	violations, err := a.validator.Register(&f, users.IsLoginTaken)
	if err != nil {
		RenderError(c, err)
		return
	}
	if violations.Empty() {
		_, err = users.CreateUser(f.Login, f.Name, f.Password, model.RoleUser)
		switch {
		case errors.Is(err, service.ErrLoginTaken):
			// lost the race against a concurrent registration
			violations = violations.Add(form.AlreadyExists)
		case err != nil:
			RenderError(c, err)
			return
		}
	}

	page := entity.RegisterPage{
		Page:       entity.Page{Title: I18nWeb(c, "pages.register.title")},
		Login:      f.Login,
		Name:       f.Name,
		Violations: violations,
	}
	if !violations.Empty() {
		htmlStatus(c, http.StatusUnprocessableEntity, "register.html", page)
		return
	}

	logger.Infof("user %q registered from %s", f.Login, getRemoteIp(c))
	page.Login, page.Name, page.Success = "", "", true
	html(c, "register.html", page)
}

func (a *IndexController) loginPage(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	html(c, "login.html", entity.LoginPage{
		Page: entity.Page{Title: I18nWeb(c, "pages.login.title")},
	})
}

func (a *IndexController) login(c *gin.Context) {
	var f form.LoginForm
	if err := c.ShouldBind(&f); err != nil {
		logger.Debug("bind login form:", err)
	}

	page := entity.LoginPage{
		Page:  entity.Page{Title: I18nWeb(c, "pages.login.title")},
		Login: f.Login,
	}
	if page.Violations = a.validator.Login(&f); !page.Violations.Empty() {
		htmlStatus(c, http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	db := a.db(c)
	user, err := service.NewUserService(db).CheckUser(f.Login, f.Password)
	if errors.Is(err, service.ErrAuthenticationFailed) {
		logger.Warningf("failed login for %q from %s", f.Login, getRemoteIp(c))
		page.AuthenticationFailed = true
		htmlStatus(c, http.StatusUnauthorized, "login.html", page)
		return
	}
	if err != nil {
		RenderError(c, err)
		return
	}

	sessions := service.NewSessionService(db)
	rc := reqctx.Get(c)
	// a new login never reuses the token the browser came with
	if old, ok := session.GetToken(rc.Session); ok {
		if err := sessions.Revoke(old); err != nil {
			logger.Warning("revoke previous session:", err)
		}
	}
	issued, err := sessions.Issue(user.Id, a.lifetime)
	if err != nil {
		RenderError(c, err)
		return
	}
	maxAge := int(config.GetSessionCookieMaxAge().Seconds())
	if err := session.SetToken(rc.Session, issued.Token, maxAge); err != nil {
		logger.Warning("unable to save session:", err)
		_ = sessions.Revoke(issued.Token)
		RenderError(c, err)
		return
	}
	session.Forget(c)

	logger.Infof("%s logged in successfully, Ip Address: %s", user.Login, getRemoteIp(c))
	c.Redirect(http.StatusSeeOther, "/")
}

// logout revokes the token of the cookie, if any, and drops the cookie. It is a
// no-op for anonymous requests.
func (a *IndexController) logout(c *gin.Context) {
	rc := reqctx.Get(c)
	if token, ok := session.GetToken(rc.Session); ok {
		if user := session.CurrentUser(c); user != nil {
			logger.Infof("%s logged out", user.Login)
		}
		if err := service.NewSessionService(a.db(c)).Revoke(token); err != nil {
			logger.Warning("revoke session:", err)
		}
		if err := session.ClearSession(rc.Session); err != nil {
			logger.Warning("unable to save session after clearing:", err)
		}
		session.Forget(c)
	}
	c.Redirect(http.StatusSeeOther, "/")
}
