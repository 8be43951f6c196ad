package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*User{}}
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, apperror.NewNotFound("user", username)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *User) error {
	if _, ok := r.users[user.Username]; ok {
		return apperror.NewDuplicate("user", "username", user.Username)
	}
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

var _ Repository = (*fakeUserRepo)(nil)

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *JWTService) {
	t.Helper()

	repo := newFakeUserRepo()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(repo, jwtSvc), repo, jwtSvc
}

func addUser(t *testing.T, repo *fakeUserRepo, username, password, role string, active bool) {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), &User{
		ID:           id.New(),
		Username:     username,
		FullName:     "Test " + username,
		Role:         role,
		PasswordHash: hash,
		Active:       active,
		CreatedAt:    time.Now(),
	}))
}

func TestLogin_Success(t *testing.T) {
	svc, repo, jwtSvc := newTestService(t)
	addUser(t, repo, "maria", "Cashier123!", RoleCashier, true)

	res, err := svc.Login(context.Background(), "maria", "Cashier123!")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "maria", res.User.Username)
	assert.Equal(t, RoleCashier, res.User.Role)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	// The issued token must round-trip through validation.
	uc, err := jwtSvc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), uc.UserID)
	assert.Equal(t, "maria", uc.Username)
	assert.Equal(t, RoleCashier, uc.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, repo, _ := newTestService(t)
	addUser(t, repo, "maria", "Cashier123!", RoleCashier, true)
	addUser(t, repo, "former", "Gone123!", RoleCashier, false)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "maria", "nope"},
		{"unknown user", "ghost", "Cashier123!"},
		{"inactive user", "former", "Gone123!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Login(context.Background(), tc.username, tc.password)
			require.Error(t, err)
			assert.Nil(t, res)

			// Uniform message so usernames cannot be probed.
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
			assert.Equal(t, "invalid credentials", appErr.Message)
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, tc := range [][2]string{{"", "pw"}, {"maria", ""}, {"", ""}} {
		_, err := svc.Login(context.Background(), tc[0], tc[1])
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	svc, repo, _ := newTestService(t)
	addUser(t, repo, "maria", "Cashier123!", RoleCashier, true)

	res, err := svc.Login(context.Background(), "maria", "Cashier123!")
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("different-secret"))
	_, err = other.ValidateToken(res.Token)
	assert.Error(t, err)

	_, err = other.ValidateToken("not.a.token")
	assert.Error(t, err)
}
