package service

import (
	"context"
	"testing"

	"docchat-be/internal/apperr"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJwtSecret = "test-secret"

type accountFixture struct {
	svc    IAccountService
	uow    *fakeUnitOfWork
	mailer *fakeMailer
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	uow := newFakeUnitOfWork()
	m := &fakeMailer{}
	return &accountFixture{
		svc:    NewAccountService(&fakeFactory{uow: uow}, m, nil, testJwtSecret),
		uow:    uow,
		mailer: m,
	}
}

func (fx *accountFixture) seedUser(t *testing.T, username, email, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &entity.User{
		Id:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	fx.uow.users.users[user.Id] = user
	return user
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(testJwtSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestLoginSuccess(t *testing.T) {
	fx := newAccountFixture(t)
	user := fx.seedUser(t, "alice", "a@x.com", "pass1234")

	resp, err := fx.svc.Login(context.Background(), &dto.LoginRequest{
		Identifier: "alice",
		Password:   "pass1234",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.UserId)
	assert.Equal(t, user.Id, *resp.UserId)
	assert.Equal(t, "alice", resp.Username)
	assert.False(t, resp.RegistrationPending)
	assert.NotNil(t, fx.uow.users.users[user.Id].LastLogin)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, user.Id.String(), claims["user_id"])
	assert.Equal(t, "alice", claims["username"])
}

func TestLoginByEmailIdentifier(t *testing.T) {
	fx := newAccountFixture(t)
	user := fx.seedUser(t, "alice", "a@x.com", "pass1234")

	resp, err := fx.svc.Login(context.Background(), &dto.LoginRequest{
		Identifier: "a@x.com",
		Password:   "pass1234",
	})
	require.NoError(t, err)
	assert.Equal(t, user.Id, *resp.UserId)
}

func TestLoginUnknownUser(t *testing.T) {
	fx := newAccountFixture(t)

	_, err := fx.svc.Login(context.Background(), &dto.LoginRequest{
		Identifier: "ghost",
		Password:   "whatever1",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newAccountFixture(t)
	fx.seedUser(t, "alice", "a@x.com", "pass1234")

	_, err := fx.svc.Login(context.Background(), &dto.LoginRequest{
		Identifier: "alice",
		Password:   "wrong-password",
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestLoginRegisterIssuesPendingToken(t *testing.T) {
	fx := newAccountFixture(t)

	resp, err := fx.svc.Login(context.Background(), &dto.LoginRequest{
		Identifier: "new@x.com",
		Register:   true,
	})
	require.NoError(t, err)
	assert.True(t, resp.RegistrationPending)
	assert.Nil(t, resp.UserId)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, true, claims["registration_pending"])
	assert.Equal(t, "new@x.com", claims["email_hint"])
}

func TestLoginRegisterWithoutEmailHasNoHint(t *testing.T) {
	fx := newAccountFixture(t)

	resp, err := fx.svc.Login(context.Background(), &dto.LoginRequest{
		Identifier: "newuser",
		Register:   true,
	})
	require.NoError(t, err)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, "", claims["email_hint"])
}

func TestLoginWithEmailKnownUser(t *testing.T) {
	fx := newAccountFixture(t)
	user := fx.seedUser(t, "alice", "a@x.com", "pass1234")

	resp, err := fx.svc.LoginWithEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, resp.UserId)
	assert.Equal(t, user.Id, *resp.UserId)
	assert.False(t, resp.RegistrationPending)
}

func TestLoginWithEmailUnknownUser(t *testing.T) {
	fx := newAccountFixture(t)

	resp, err := fx.svc.LoginWithEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.True(t, resp.RegistrationPending)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, "new@x.com", claims["email_hint"])
}

func TestIsUsernameTaken(t *testing.T) {
	fx := newAccountFixture(t)
	fx.seedUser(t, "alice", "a@x.com", "pass1234")

	taken, err := fx.svc.IsUsernameTaken(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = fx.svc.IsUsernameTaken(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestIsEmailTaken(t *testing.T) {
	fx := newAccountFixture(t)
	fx.seedUser(t, "alice", "a@x.com", "pass1234")

	taken, err := fx.svc.IsEmailTaken(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = fx.svc.IsEmailTaken(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRegisterHashesPassword(t *testing.T) {
	fx := newAccountFixture(t)

	user, err := fx.svc.Register(context.Background(), "alice", "a@x.com", "pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass1234")))

	stored := fx.uow.users.users[user.Id]
	require.NotNil(t, stored)
	assert.Equal(t, "a@x.com", stored.Email)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	fx := newAccountFixture(t)
	fx.seedUser(t, "alice", "a@x.com", "pass1234")

	_, err := fx.svc.Register(context.Background(), "alice", "other@x.com", "pass1234")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = fx.svc.Register(context.Background(), "alice2", "a@x.com", "pass1234")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}
