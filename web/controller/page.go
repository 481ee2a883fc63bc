package controller

import (
	"strconv"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/web/entity"
	"github.com/seatbook/seatbook/web/service"
	"github.com/seatbook/seatbook/web/session"

	"github.com/gin-gonic/gin"
)

// PageController serves the read-only pages.
type PageController struct {
	BaseController
}

func NewPageController(g *gin.RouterGroup) *PageController {
	a := &PageController{}
	a.initRouter(g)
	return a
}

func (a *PageController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/about", a.about)
	g.GET("/users", a.users)
	g.GET("/seat/:id", a.seat)
}

func (a *PageController) page(c *gin.Context, titleKey string, params ...string) entity.Page {
	return entity.Page{
		Title: I18nWeb(c, titleKey, params...),
		User:  entity.NewUserView(session.CurrentUser(c)),
	}
}

func (a *PageController) index(c *gin.Context) {
	seats, err := service.NewSeatService(a.db(c)).GetSeats()
	if err != nil {
		RenderError(c, err)
		return
	}

	grouped := service.GroupSeats(seats)
	groups := make([]entity.SeatGroup, 0, len(model.SeatTypes))
	for _, t := range model.SeatTypes {
		if len(grouped[t]) == 0 {
			continue
		}
		group := entity.SeatGroup{Type: string(t)}
		for i := range grouped[t] {
			group.Seats = append(group.Seats, entity.NewSeatView(&grouped[t][i]))
		}
		groups = append(groups, group)
	}

	html(c, "index.html", entity.IndexPage{
		Page:   a.page(c, "pages.index.title"),
		Groups: groups,
	})
}

func (a *PageController) about(c *gin.Context) {
	html(c, "about.html", entity.AboutPage{Page: a.page(c, "pages.about.title")})
}

func (a *PageController) users(c *gin.Context) {
	users, err := service.NewUserService(a.db(c)).GetUsers()
	if err != nil {
		RenderError(c, err)
		return
	}
	views := make([]entity.UserView, 0, len(users))
	for i := range users {
		views = append(views, *entity.NewUserView(&users[i]))
	}
	html(c, "users.html", entity.UsersPage{
		Page:  a.page(c, "pages.users.title"),
		Users: views,
	})
}

func (a *PageController) seat(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		RenderError(c, database.ErrNotFound)
		return
	}
	seat, err := service.NewSeatService(a.db(c)).GetSeat(id)
	if err != nil {
		RenderError(c, err)
		return
	}
	html(c, "seat.html", entity.SeatPage{
		Page: a.page(c, "pages.seat.title", "Name=="+seat.Name),
		Seat: entity.NewSeatView(seat),
	})
}
