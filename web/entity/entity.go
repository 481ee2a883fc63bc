// Package entity defines the JSON envelope and the typed view models the
// templates are rendered from.
package entity

import (
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/web/form"

	"github.com/gin-gonic/gin"
)

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// View is implemented by every page model.
type View interface {
	H() gin.H
}

// UserView is the public part of a user. The password digest never leaves the
// service layer.
type UserView struct {
	Id    int    `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Admin bool   `json:"admin"`
}

func NewUserView(u *model.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		Id:    u.Id,
		Login: u.Login,
		Name:  u.Name,
		Score: u.Score,
		Admin: u.Role == model.RoleAdmin,
	}
}

type SeatView struct {
	Id           int     `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Availability string  `json:"availability"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Rot          float64 `json:"rot"`
}

func NewSeatView(s *model.Seat) SeatView {
	x, y, rot := s.Position()
	return SeatView{
		Id:           s.Id,
		Name:         s.Name,
		Type:         string(s.Type),
		Availability: string(s.Availability),
		X:            x,
		Y:            y,
		Rot:          rot,
	}
}

// Page carries what the layout needs on every page.
type Page struct {
	Title string
	User  *UserView
}

func (p Page) H() gin.H {
	return gin.H{
		"title": p.Title,
		"user":  p.User,
	}
}

type SeatGroup struct {
	Type  string
	Seats []SeatView
}

type IndexPage struct {
	Page
	Groups []SeatGroup
}

func (p IndexPage) H() gin.H {
	h := p.Page.H()
	h["groups"] = p.Groups
	return h
}

type SeatPage struct {
	Page
	Seat SeatView
}

func (p SeatPage) H() gin.H {
	h := p.Page.H()
	h["seat"] = p.Seat
	return h
}

type UsersPage struct {
	Page
	Users []UserView
}

func (p UsersPage) H() gin.H {
	h := p.Page.H()
	h["users"] = p.Users
	return h
}

type AboutPage struct {
	Page
}

// RegisterPage echoes the submitted login and name back into the form. The
// password is never rendered.
type RegisterPage struct {
	Page
	Login      string
	Name       string
	Violations form.Violations
	Success    bool
}

func (p RegisterPage) H() gin.H {
	h := p.Page.H()
	h["login"] = p.Login
	h["name"] = p.Name
	h["violations"] = violationFlags(p.Violations)
	h["violationTags"] = p.Violations.Tags()
	h["success"] = p.Success
	return h
}

type LoginPage struct {
	Page
	Login                string
	Violations           form.Violations
	AuthenticationFailed bool
}

func (p LoginPage) H() gin.H {
	h := p.Page.H()
	h["login"] = p.Login
	h["violations"] = violationFlags(p.Violations)
	h["violationTags"] = p.Violations.Tags()
	h["authenticationFailed"] = p.AuthenticationFailed
	return h
}

type ErrorPage struct {
	Page
	Status  int
	Message string
}

func (p ErrorPage) H() gin.H {
	h := p.Page.H()
	h["status"] = p.Status
	h["message"] = p.Message
	return h
}

// violationFlags lets templates test a tag with {{ if .violations.BadLogin }}.
func violationFlags(v form.Violations) map[string]bool {
	flags := make(map[string]bool, len(v))
	for tag := range v {
		flags[string(tag)] = true
	}
	return flags
}
