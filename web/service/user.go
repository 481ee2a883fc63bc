// Package service implements the application operations on top of the store.
// Services are cheap values bound to one gorm handle, normally the connection
// borrowed by the current request.
package service

import (
	"errors"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/util/crypto"

	"gorm.io/gorm"
)

var (
	// ErrAuthenticationFailed covers both an unknown login and a wrong password.
	ErrAuthenticationFailed = errors.New("wrong login or password")
	// ErrLoginTaken is returned when the unique login constraint rejects an insert.
	ErrLoginTaken    = errors.New("login already registered")
	ErrEmptyPassword = errors.New("password can not be empty")
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserById(id int) (*model.User, error) {
	return database.QueryOne(s.db, "user_by_id", model.DecodeUser, id)
}

func (s *UserService) GetUserByLogin(login string) (*model.User, error) {
	return database.QueryOne(s.db, "user_by_login", model.DecodeUser, login)
}

// GetUsers lists users by score, best first.
func (s *UserService) GetUsers() ([]model.User, error) {
	return database.QueryAll(s.db, "users_all", model.DecodeUser)
}

// IsLoginTaken reports whether a user with login exists.
func (s *UserService) IsLoginTaken(login string) (bool, error) {
	var n int64
	if err := s.db.Raw(database.Query("user_exists"), login).Scan(&n).Error; err != nil {
		return false, database.Translate(err)
	}
	return n > 0, nil
}

// CreateUser stores a new user with the digest of password. A concurrent
// registration of the same login surfaces as ErrLoginTaken.
func (s *UserService) CreateUser(login, name, password string, role model.Role) (*model.User, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	user := &model.User{
		Login:        login,
		Name:         name,
		PasswordHash: crypto.HashPassword(password, login),
		Role:         role,
	}
	err := s.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrLoginTaken
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return user, nil
}

// CheckUser returns the user whose login and password match. Store failures are
// returned unchanged; everything else is ErrAuthenticationFailed.
func (s *UserService) CheckUser(login, password string) (*model.User, error) {
	user, err := s.GetUserByLogin(login)
	if database.IsNotFound(err) {
		return nil, ErrAuthenticationFailed
	} else if err != nil {
		return nil, err
	}
	if !crypto.CheckPasswordHash(user.PasswordHash, password, user.Login) {
		return nil, ErrAuthenticationFailed
	}
	return user, nil
}

// UpdatePassword stores a new digest and revokes every session of the user.
func (s *UserService) UpdatePassword(id int, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	user, err := s.GetUserById(id)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ?", id).
			Update("password_hash", crypto.HashPassword(password, user.Login))
		if res.Error != nil {
			return res.Error
		}
		return NewSessionService(tx).RevokeAll(id)
	})
	return database.Translate(err)
}

// DeleteUser removes the user; its sessions go with it through the foreign key.
func (s *UserService) DeleteUser(id int) error {
	res := s.db.Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return database.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
