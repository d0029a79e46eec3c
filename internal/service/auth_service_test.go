package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created []*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-1"
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUserRepo) add(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: email, PasswordHash: string(hash), Name: "Test Student"}
	f.byEmail[email] = user
	f.byID[user.ID] = user
	return user
}

func testAuthConfig() AuthConfig {
	return AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour, Issuer: "classtrack"}
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	ctx := context.Background()
	registered, err := svc.Register(ctx, models.RegisterRequest{Email: "student@example.com", Password: "sup3rsecret", Name: "Student"})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	require.Len(t, repo.created, 1)

	logged, err := svc.Login(ctx, models.LoginRequest{Email: "student@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", logged.User.ID)

	claims, err := svc.ValidateToken(logged.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(t, "student@example.com", "sup3rsecret")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "student@example.com", Password: "sup3rsecret", Name: "Student"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(t, "student@example.com", "sup3rsecret")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "wrongwrong"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "sup3rsecret"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer := NewAuthService(newFakeUserRepo(), nil, nil, AuthConfig{TokenSecret: "other-secret", TokenExpiry: time.Hour})
	token, err := issuer.issueToken(&models.User{ID: "user-1", Email: "student@example.com"})
	require.NoError(t, err)

	svc := NewAuthService(newFakeUserRepo(), nil, nil, testAuthConfig())
	_, err = svc.ValidateToken(token.AccessToken)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceMe(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(t, "student@example.com", "sup3rsecret")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	user, err := svc.Me(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.Email)

	_, err = svc.Me(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
