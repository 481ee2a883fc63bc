package service

import (
	"testing"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/util/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserStoresDigest(t *testing.T) {
	db := setup(t)
	svc := NewUserService(db)

	u, err := svc.CreateUser("ivan", "Иван Петров", "password1", model.RoleAdmin)
	require.NoError(t, err)
	assert.NotZero(t, u.Id)

	stored, err := svc.GetUserById(u.Id)
	require.NoError(t, err)
	assert.Equal(t, "ivan", stored.Login)
	assert.Equal(t, "Иван Петров", stored.Name)
	assert.Equal(t, model.RoleAdmin, stored.Role)
	assert.Equal(t, crypto.HashPassword("password1", "ivan"), stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "password1")
}

func TestCreateUserDuplicateLogin(t *testing.T) {
	db := setup(t)
	svc := NewUserService(db)
	createUser(t, db, "ivan", "password1")

	_, err := svc.CreateUser("ivan", "Someone Else", "password2", model.RoleUser)
	assert.ErrorIs(t, err, ErrLoginTaken)

	taken, err := svc.IsLoginTaken("ivan")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = svc.IsLoginTaken("petr")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCreateUserRejectsEmptyPassword(t *testing.T) {
	db := setup(t)
	_, err := NewUserService(db).CreateUser("ivan", "Ivan", "", model.RoleUser)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCheckUserDoesNotRevealWhichPartFailed(t *testing.T) {
	db := setup(t)
	svc := NewUserService(db)
	created := createUser(t, db, "ivan", "password1")

	u, err := svc.CheckUser("ivan", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.Id, u.Id)

	_, wrongPassword := svc.CheckUser("ivan", "password2")
	_, unknownLogin := svc.CheckUser("nobody", "password1")
	assert.ErrorIs(t, wrongPassword, ErrAuthenticationFailed)
	assert.ErrorIs(t, unknownLogin, ErrAuthenticationFailed)
	assert.Equal(t, wrongPassword.Error(), unknownLogin.Error())
}

func TestGetUsersOrderedByScore(t *testing.T) {
	db := setup(t)
	svc := NewUserService(db)
	a := createUser(t, db, "a", "password1")
	b := createUser(t, db, "b", "password1")
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", b.Id).Update("score", 10).Error)

	users, err := svc.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, b.Id, users[0].Id)
	assert.Equal(t, a.Id, users[1].Id)
}

func TestGetUserNotFound(t *testing.T) {
	db := setup(t)
	_, err := NewUserService(db).GetUserByLogin("nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUpdatePasswordRevokesSessions(t *testing.T) {
	db := setup(t)
	users := NewUserService(db)
	sessions := NewSessionService(db)
	u := createUser(t, db, "ivan", "password1")

	s, err := sessions.Issue(u.Id, 0)
	require.NoError(t, err)

	require.NoError(t, users.UpdatePassword(u.Id, "password2"))

	_, err = sessions.Resolve(s.Token)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = users.CheckUser("ivan", "password1")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = users.CheckUser("ivan", "password2")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	db := setup(t)
	users := NewUserService(db)
	u := createUser(t, db, "ivan", "password1")
	s, err := NewSessionService(db).Issue(u.Id, 0)
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(u.Id))
	assert.ErrorIs(t, users.DeleteUser(u.Id), database.ErrNotFound)

	_, err = NewSessionService(db).Resolve(s.Token)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
