package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/util/crypto"
	"github.com/seatbook/seatbook/util/random"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenEntropy is the number of random bytes behind every session token.
const tokenEntropy = 16

// NewToken returns a fresh session token: the hex digest of 128 random bits.
func NewToken() (string, error) {
	b, err := random.Bytes(tokenEntropy)
	if err != nil {
		return "", err
	}
	return crypto.Digest(b), nil
}

// SessionService persists session tokens.
type SessionService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db, now: time.Now}
}

// Issue creates a session for an existing user. A zero lifetime issues a session
// that lives until it is revoked. Expiry has a resolution of one second, so a
// shorter positive lifetime is rejected. The returned token is the value to hand to the
// client; it is stored as is.
func (s *SessionService) Issue(userId int, lifetime time.Duration) (*model.Session, error) {
	if lifetime < 0 || (lifetime > 0 && lifetime < time.Second) {
		return nil, fmt.Errorf("invalid session lifetime %s", lifetime)
	}
	if _, err := NewUserService(s.db).GetUserById(userId); err != nil {
		return nil, err
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	session := &model.Session{Token: token, UserId: userId}
	if lifetime > 0 {
		expiresAt := s.now().Add(lifetime).Unix()
		session.ExpiresAt = &expiresAt
	}

	err = s.db.Omit(clause.Associations).Create(session).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		// the user was deleted after the lookup above
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return session, nil
}

// Resolve returns the user the token belongs to. Unknown and expired tokens are
// database.ErrNotFound.
func (s *SessionService) Resolve(token string) (*model.User, error) {
	if token == "" {
		return nil, database.ErrNotFound
	}
	return database.QueryOne(s.db, "session_user", model.DecodeUser, token, s.now().Unix())
}

// Revoke deletes the session with token. Unknown tokens are not an error.
func (s *SessionService) Revoke(token string) error {
	if token == "" {
		return nil
	}
	return database.Translate(s.db.Where("token = ?", token).Delete(&model.Session{}).Error)
}

// RevokeAll deletes every session of the user.
func (s *SessionService) RevokeAll(userId int) error {
	return database.Translate(s.db.Where("user_id = ?", userId).Delete(&model.Session{}).Error)
}

// GetUserSessions lists the sessions of a user, expired ones included.
func (s *SessionService) GetUserSessions(userId int) ([]model.Session, error) {
	return database.QueryAll(s.db, "sessions_by_user", model.DecodeSession, userId)
}

// Purge deletes expired sessions and returns how many were removed.
func (s *SessionService) Purge() (int64, error) {
	res := s.db.Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().Unix()).Delete(&model.Session{})
	if res.Error != nil {
		return 0, database.Translate(res.Error)
	}
	return res.RowsAffected, nil
}
