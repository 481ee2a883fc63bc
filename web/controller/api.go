package controller

import (
	"strconv"

	"github.com/seatbook/seatbook/logger"
	"github.com/seatbook/seatbook/web/entity"
	"github.com/seatbook/seatbook/web/service"
	"github.com/seatbook/seatbook/web/session"

	"github.com/gin-gonic/gin"
)

// APIController serves the JSON endpoints under /api.
type APIController struct {
	BaseController
}

func NewAPIController(g *gin.RouterGroup) *APIController {
	a := &APIController{}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	api := g.Group("/api")
	api.Use(a.checkLogin)

	api.GET("/me", a.me)
	api.GET("/seats", a.seats)
	api.GET("/logs", a.checkAdmin, a.logs)
}

// me returns the signed-in user.
func (a *APIController) me(c *gin.Context) {
	jsonObj(c, entity.NewUserView(session.CurrentUser(c)), nil)
}

func (a *APIController) seats(c *gin.Context) {
	seats, err := service.NewSeatService(a.db(c)).GetSeats()
	if err != nil {
		jsonMsgObj(c, "get seats", nil, err)
		return
	}
	views := make([]entity.SeatView, 0, len(seats))
	for i := range seats {
		views = append(views, entity.NewSeatView(&seats[i]))
	}
	jsonObj(c, views, nil)
}

const maxLogCount = 1000

// logs returns the newest buffered log entries. Query: count (default 100) and
// level, the lowest severity to include (default INFO).
func (a *APIController) logs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count < 1 {
		count = 100
	}
	count = min(count, maxLogCount)
	jsonObj(c, logger.GetLogs(count, c.DefaultQuery("level", "INFO")), nil)
}
