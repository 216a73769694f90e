package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/postboard/apiserver/internal/auth"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/services"
	"github.com/postboard/apiserver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *store.MemoryUserRepository) {
	t.Helper()
	repo := store.NewMemoryUserRepository()
	issuer, err := auth.NewIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)
	svc := services.NewAuthService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer, nil, logging.Discard())
	return NewAuthHandler(svc, logging.Discard(), nil), repo
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignup_Success(t *testing.T) {
	h, repo := newAuthHandler(t)

	rec := postJSON(t, h.Signup, "/api/auth/signup", map[string]string{
		"firstName": "john",
		"lastName":  "doe",
		"email":     "j@x.com",
		"password":  "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "User signed up successfully..!!", body["message"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "John", user["firstName"])
	assert.Equal(t, "Doe", user["lastName"])
	assert.Equal(t, "https://api.dicebear.com/9.x/initials/svg?seed=john%20doe", user["profilePhoto"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	stored, err := repo.GetByEmail(context.Background(), "j@x.com")
	require.NoError(t, err)
	assert.Equal(t, "John", stored.FirstName)
}

func TestSignup_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{
			name:  "empty object",
			body:  map[string]string{},
			field: "First Name",
		},
		{
			name:  "blank first name",
			body:  map[string]string{"firstName": "   ", "lastName": "doe", "email": "j@x.com", "password": "p"},
			field: "First Name",
		},
		{
			name:  "last name",
			body:  map[string]string{"firstName": "john", "email": "j@x.com", "password": "p"},
			field: "Last Name",
		},
		{
			name:  "email before password",
			body:  map[string]string{"firstName": "john", "lastName": "doe"},
			field: "Email",
		},
		{
			name:  "password",
			body:  map[string]string{"firstName": "john", "lastName": "doe", "email": "j@x.com"},
			field: "Password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := newAuthHandler(t)

			rec := postJSON(t, h.Signup, "/api/auth/signup", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.field, body["field"])
			assert.Equal(t, tt.field+" is required..!!", body["message"])

			users, err := repo.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, users)
		})
	}
}

func TestSignup_BadBodies(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoBody, decodeBody(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{bad json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidBody, decodeBody(t, rec)["message"])
}

func TestSignup_DuplicateEmail(t *testing.T) {
	h, repo := newAuthHandler(t)
	body := map[string]string{"firstName": "john", "lastName": "doe", "email": "j@x.com", "password": "secret1"}

	require.Equal(t, http.StatusCreated, postJSON(t, h.Signup, "/api/auth/signup", body).Code)

	rec := postJSON(t, h.Signup, "/api/auth/signup", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgEmailTaken, decodeBody(t, rec)["message"])

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	h, repo := newAuthHandler(t)

	rec := postJSON(t, h.Signup, "/api/auth/signup", map[string]string{
		"firstName": "john",
		"lastName":  "doe",
		"email":     "j@x.com",
		"password":  strings.Repeat("a", 73),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Password", body["field"])
	assert.Equal(t, msgPassTooLong, body["message"])

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLogin(t *testing.T) {
	h, _ := newAuthHandler(t)
	signup := postJSON(t, h.Signup, "/api/auth/signup", map[string]string{
		"firstName": "john", "lastName": "doe", "email": "j@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, signup.Code)
	userID := decodeBody(t, signup)["user"].(map[string]any)["id"]

	t.Run("success", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{"email": "j@x.com", "password": "secret1"})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, userID, body["userId"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("missing password", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{"email": "j@x.com"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Password", decodeBody(t, rec)["field"])
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{"email": "x@x.com", "password": "secret1"})
		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "email", body["field"])
		assert.Equal(t, msgInvalidEmail, body["message"])
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{"email": "j@x.com", "password": "nope"})
		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "password", body["field"])
		assert.Equal(t, msgInvalidPass, body["message"])
	})
}

func TestProfile_RequiresUserInContext(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Profile(rec, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFailedLogin(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.FailedLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/failedLogin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}
