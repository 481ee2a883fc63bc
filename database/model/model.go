// Package model holds the stored records and their row decoders.
package model

import (
	"database/sql"
	"fmt"
	"time"
)

type Role int

const (
	RoleUser  Role = 0
	RoleAdmin Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

type User struct {
	Id           int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Login        string `json:"login" gorm:"size:128;not null;uniqueIndex"`
	Name         string `json:"name" gorm:"size:128;not null"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	Role         Role   `json:"role" gorm:"not null;default:0"`
	Score        int    `json:"score" gorm:"not null;default:0"`
}

func (User) TableName() string { return "users" }

// Session binds an opaque token to a user. ExpiresAt is a unix timestamp in
// seconds; nil means the session lives until it is revoked.
type Session struct {
	Token     string `json:"-" gorm:"primaryKey;size:128"`
	UserId    int    `json:"userId" gorm:"not null;index"`
	ExpiresAt *int64 `json:"expiresAt"`

	User *User `json:"-" gorm:"foreignKey:UserId;references:Id;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string { return "sessions" }

// Expires returns the expiry time and whether the session expires at all.
func (s *Session) Expires() (time.Time, bool) {
	if s.ExpiresAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*s.ExpiresAt, 0).UTC(), true
}

// IsExpired reports whether the session is no longer valid at now.
func (s *Session) IsExpired(now time.Time) bool {
	exp, ok := s.Expires()
	return ok && !exp.After(now)
}

// DecodeError reports a result row that does not have the shape of the entity
// it is decoded into.
type DecodeError struct {
	Entity string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s.%s: %v", e.Entity, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s.%s: unexpected NULL", e.Entity, e.Field)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// DecodeUser reads the columns id, login, name, password_hash, role, score.
func DecodeUser(row Scanner) (*User, error) {
	var (
		id, role, score   sql.NullInt64
		login, name, hash sql.NullString
	)
	if err := row.Scan(&id, &login, &name, &hash, &role, &score); err != nil {
		return nil, &DecodeError{Entity: "user", Field: "*", Err: err}
	}
	switch {
	case !id.Valid:
		return nil, &DecodeError{Entity: "user", Field: "id"}
	case !login.Valid:
		return nil, &DecodeError{Entity: "user", Field: "login"}
	case !name.Valid:
		return nil, &DecodeError{Entity: "user", Field: "name"}
	case !hash.Valid:
		return nil, &DecodeError{Entity: "user", Field: "password_hash"}
	case !role.Valid:
		return nil, &DecodeError{Entity: "user", Field: "role"}
	case !score.Valid:
		return nil, &DecodeError{Entity: "user", Field: "score"}
	}
	return &User{
		Id:           int(id.Int64),
		Login:        login.String,
		Name:         name.String,
		PasswordHash: hash.String,
		Role:         Role(role.Int64),
		Score:        int(score.Int64),
	}, nil
}

// DecodeSession reads the columns token, user_id, expires_at.
func DecodeSession(row Scanner) (*Session, error) {
	var (
		token     sql.NullString
		userId    sql.NullInt64
		expiresAt sql.NullInt64
	)
	if err := row.Scan(&token, &userId, &expiresAt); err != nil {
		return nil, &DecodeError{Entity: "session", Field: "*", Err: err}
	}
	if !token.Valid {
		return nil, &DecodeError{Entity: "session", Field: "token"}
	}
	if !userId.Valid {
		return nil, &DecodeError{Entity: "session", Field: "user_id"}
	}
	s := &Session{Token: token.String, UserId: int(userId.Int64)}
	if expiresAt.Valid {
		exp := expiresAt.Int64
		s.ExpiresAt = &exp
	}
	return s, nil
}
