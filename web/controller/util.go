package controller

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/logger"
	"github.com/seatbook/seatbook/web/entity"
	"github.com/seatbook/seatbook/web/locale"
	"github.com/seatbook/seatbook/web/middleware"
	"github.com/seatbook/seatbook/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

// jsonMsgObj sends a JSON response with a message, object, and error status.
func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		m.Msg = msg
		c.JSON(http.StatusOK, m)
		return
	}
	status := statusFor(err)
	m.Msg = errorMessage(c, status)
	logger.Warning(msg, err)
	c.JSON(status, m)
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// html renders a page with status 200.
func html(c *gin.Context, name string, view entity.View) {
	htmlStatus(c, http.StatusOK, name, view)
}

// htmlStatus renders the named template from the view model. XHR requests get
// the page content without the surrounding layout.
func htmlStatus(c *gin.Context, status int, name string, view entity.View) {
	c.HTML(status, name, getContext(c, view.H()))
}

// getContext adds what the layout needs to the page data.
func getContext(c *gin.Context, h map[string]any) map[string]any {
	a := map[string]any{
		"cur_ver":     config.GetVersion(),
		"loc":         locale.Get(c),
		"ajax":        isAjax(c),
		"request_uri": c.Request.RequestURI,
		"request_id":  middleware.RequestID(c),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// isAjax checks if the request is an AJAX request.
func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// statusFor maps store errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case database.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, database.ErrPoolExhausted),
		errors.Is(err, database.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorMessage(c *gin.Context, status int) string {
	switch status {
	case http.StatusNotFound:
		return I18nWeb(c, "errors.notFound")
	case http.StatusServiceUnavailable:
		return I18nWeb(c, "errors.unavailable")
	}
	return I18nWeb(c, "errors.internal")
}

// RenderError answers the request with the page or JSON body matching err.
// Nothing is retried; the error only ends the current request.
func RenderError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("[%s] %s %s: %v", middleware.RequestID(c), c.Request.Method, c.Request.URL.Path, err)
	} else {
		logger.Debugf("[%s] %s %s: %v", middleware.RequestID(c), c.Request.Method, c.Request.URL.Path, err)
	}

	msg := errorMessage(c, status)
	if isAjax(c) || isAPI(c) {
		pureJsonMsg(c, status, false, msg)
	} else {
		htmlStatus(c, status, "error.html", entity.ErrorPage{
			Page:    entity.Page{Title: msg, User: entity.NewUserView(session.CurrentUser(c))},
			Status:  status,
			Message: msg,
		})
	}
	c.Abort()
}
