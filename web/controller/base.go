// Package controller provides the HTTP handlers of the seatbook web application.
package controller

import (
	"net/http"

	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/web/locale"
	"github.com/seatbook/seatbook/web/reqctx"
	"github.com/seatbook/seatbook/web/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BaseController provides common functionality for all controllers, including authentication checks.
type BaseController struct{}

// checkLogin lets only signed-in users through.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		if isAjax(c) || isAPI(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "errors.unauthorized"))
		} else {
			c.Redirect(http.StatusSeeOther, "/login")
		}
		c.Abort()
	} else {
		c.Next()
	}
}

// checkAdmin lets only administrators through. It runs after checkLogin.
func (a *BaseController) checkAdmin(c *gin.Context) {
	if user := session.CurrentUser(c); user == nil || user.Role != model.RoleAdmin {
		pureJsonMsg(c, http.StatusForbidden, false, I18nWeb(c, "errors.forbidden"))
		c.Abort()
		return
	}
	c.Next()
}

// db returns the store handle bound to the request's pooled connection.
func (a *BaseController) db(c *gin.Context) *gorm.DB {
	return reqctx.Get(c).DB()
}

func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(c, name, params...)
}
