package http_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	handler "github.com/vasiliy-maslov/freshcart/internal/handler/http"
	"github.com/vasiliy-maslov/freshcart/internal/user"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	s := newTestServer(t)

	result := &user.AuthResult{
		User: user.PublicUser{
			ID:        uuid.Must(uuid.NewV4()),
			Name:      "Amina",
			Email:     "amina@example.com",
			Role:      auth.RoleCustomer,
			CreatedAt: time.Now().Truncate(time.Second),
		},
		Token: "signed-token",
	}
	s.users.On("Register", mock.Anything, user.RegisterInput{
		Name:     "Amina",
		Email:    "amina@example.com",
		Password: "secret123",
		Role:     auth.RoleCustomer,
	}).Return(result, nil).Once()

	rr := s.do(t, http.MethodPost, "/api/auth/register", "", handler.RegisterRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	got := decodeBody[user.AuthResult](t, rr)
	assert.Equal(t, "signed-token", got.Token)
	assert.Equal(t, result.User.ID, got.User.ID)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		expectedKeys []string
	}{
		{"missing_fields", handler.RegisterRequest{}, []string{"name", "email", "password"}},
		{"bad_email", handler.RegisterRequest{Name: "A", Email: "nope", Password: "secret123"}, []string{"email"}},
		{"short_password", handler.RegisterRequest{Name: "A", Email: "a@example.com", Password: "123"}, []string{"password"}},
		{"password_beyond_bcrypt_limit", handler.RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("p", 80)}, []string{"password"}},
		{"unknown_role", handler.RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret123", Role: "root"}, []string{"role"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			rr := s.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			got := decodeBody[handler.ValidationErrorResponse](t, rr)
			assert.Equal(t, "Validation failed", got.Error)
			for _, key := range tt.expectedKeys {
				assert.Contains(t, got.Details, key)
			}
			s.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Register_ServiceErrors(t *testing.T) {
	tests := []struct {
		name         string
		serviceErr   error
		expectedCode int
		expectedMsg  string
	}{
		{"duplicate_email", user.ErrEmailExists, http.StatusConflict, "Email already exists"},
		{"admin_disabled", user.ErrAdminSignupDisabled, http.StatusForbidden, user.ErrAdminSignupDisabled.Error()},
		{"infrastructure", assert.AnError, http.StatusInternalServerError, "Failed to register user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.users.On("Register", mock.Anything, mock.Anything).Return(nil, tt.serviceErr).Once()

			rr := s.do(t, http.MethodPost, "/api/auth/register", "", handler.RegisterRequest{
				Name: "A", Email: "a@example.com", Password: "secret123", Role: "admin",
			})
			require.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, tt.expectedMsg, errorMessage(t, rr))
		})
	}
}

func TestAuthHandler_Register_UnknownField(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/auth/register", "", `{"name":"A","email":"a@example.com","password":"secret123","isAdmin":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request payload", errorMessage(t, rr))
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	s := newTestServer(t)
	s.users.On("Login", mock.Anything, "a@example.com", "wrong").Return(nil, user.ErrInvalidCredentials).Once()

	rr := s.do(t, http.MethodPost, "/api/auth/login", "", handler.LoginRequest{Email: "a@example.com", Password: "wrong"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid credentials", errorMessage(t, rr))
}

func TestAuthHandler_Login_Success(t *testing.T) {
	s := newTestServer(t)
	result := &user.AuthResult{User: user.PublicUser{Email: "a@example.com", Role: auth.RoleAdmin}, Token: "t"}
	s.users.On("Login", mock.Anything, "a@example.com", "secret123").Return(result, nil).Once()

	rr := s.do(t, http.MethodPost, "/api/auth/login", "", handler.LoginRequest{Email: "a@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, auth.RoleAdmin, decodeBody[user.AuthResult](t, rr).User.Role)
}

func TestAuthHandler_Me(t *testing.T) {
	s := newTestServer(t)
	caller, token := s.principal(t, auth.RoleCustomer)

	s.users.On("GetUserByID", mock.Anything, caller.UserID).Return(&user.User{
		ID:           caller.UserID,
		Name:         "Me",
		Email:        "me@example.com",
		PasswordHash: "secret-hash",
		Role:         auth.RoleCustomer,
	}, nil).Once()

	rr := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret-hash")
	assert.Equal(t, caller.UserID, decodeBody[user.PublicUser](t, rr).ID)
}

func TestAuthHandler_ListUsers_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	_, customerToken := s.principal(t, auth.RoleCustomer)
	_, adminToken := s.principal(t, auth.RoleAdmin)

	rr := s.do(t, http.MethodGet, "/api/auth/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/auth/users", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	s.users.On("ListUsers", mock.Anything).Return([]user.User{
		{ID: uuid.Must(uuid.NewV4()), Name: "A", PasswordHash: "h1", Role: auth.RoleCustomer},
		{ID: uuid.Must(uuid.NewV4()), Name: "B", PasswordHash: "h2", Role: auth.RoleAdmin},
	}, nil).Once()

	rr = s.do(t, http.MethodGet, "/api/auth/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]user.PublicUser](t, rr), 2)
	assert.NotContains(t, rr.Body.String(), "h1")
}

func TestAuthHandler_Logout(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/logout", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeBody[handler.LogoutResponse](t, rr).Success)
}

func TestGuard_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)
	expired := auth.NewTokenManager("handler-test-secret", time.Hour, auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	oldToken, _, err := expired.Issue(uuid.Must(uuid.NewV4()), auth.RoleAdmin)
	require.NoError(t, err)

	forged, _, err := auth.NewTokenManager("other-secret", time.Hour).Issue(uuid.Must(uuid.NewV4()), auth.RoleAdmin)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"expired":      "Bearer " + oldToken,
		"wrong_secret": "Bearer " + forged,
		"garbage":      "Bearer not-a-jwt",
		"wrong_scheme": "Basic dXNlcjpwYXNz",
		"empty_bearer": "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			req := newRequest(t, http.MethodGet, "/api/orders", header)
			rr := serve(s, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
