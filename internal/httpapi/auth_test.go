package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"spbunet/api/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookieFrom(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthRoutesUnavailableWithoutBackend(t *testing.T) {
	h := newTestRouter(t, newMemStore(), nil)

	rec := do(h, http.MethodPost, "/api/auth/login", `{"email":"a@b.id","password":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "AUTH_UNAVAILABLE", errorCode(t, rec))

	rec = do(h, http.MethodGet, "/api/auth/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["authenticated"])
}

func TestCheckEmail(t *testing.T) {
	fa := newFakeAuth()
	fa.addUser("admin@spbu.id", "rahasia123")
	h := newTestRouter(t, newMemStore(), fa)

	rec := do(h, http.MethodPost, "/api/auth/check-email", `{"email":" Admin@SPBU.id "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["registered"])

	rec = do(h, http.MethodPost, "/api/auth/check-email", `{"email":"other@spbu.id"}`)
	assert.Equal(t, false, decode[map[string]any](t, rec)["registered"])

	rec = do(h, http.MethodPost, "/api/auth/check-email", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUnregisteredEmailCreatesNoSession(t *testing.T) {
	fa := newFakeAuth()
	ms := newMemStore()
	h := newTestRouter(t, ms, fa)

	rec := do(h, http.MethodPost, "/api/auth/login", `{"email":"ghost@spbu.id","password":"whatever1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_NOT_REGISTERED", errorCode(t, rec))
	assert.Nil(t, sessionCookieFrom(rec))
	assert.Zero(t, ms.sessionCount())
	assert.Zero(t, fa.signIns)
}

func TestLoginWrongPassword(t *testing.T) {
	fa := newFakeAuth()
	fa.addUser("admin@spbu.id", "rahasia123")
	ms := newMemStore()
	h := newTestRouter(t, ms, fa)

	rec := do(h, http.MethodPost, "/api/auth/login", `{"email":"admin@spbu.id","password":"salah"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookieFrom(rec))
	assert.Zero(t, ms.sessionCount())
}

func TestLoginSessionLogoutFlow(t *testing.T) {
	fa := newFakeAuth()
	fa.addUser("admin@spbu.id", "rahasia123")
	ms := newMemStore()
	h := newTestRouter(t, ms, fa)

	rec := do(h, http.MethodPost, "/api/auth/login", `{"email":"Admin@SPBU.id","password":"rahasia123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookieFrom(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, ms.sessionCount())

	rec = do(h, http.MethodGet, "/api/auth/session", "", withCookie(cookie))
	body := decode[struct {
		Authenticated bool        `json:"authenticated"`
		User          sessionUser `json:"user"`
	}](t, rec)
	assert.True(t, body.Authenticated)
	assert.Equal(t, "admin@spbu.id", body.User.Email)

	// The session cookie unlocks admin writes.
	rec = do(h, http.MethodPost, "/api/regions", `{"name":"Jawa Barat"}`, withCookie(cookie))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/logout", "", withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookieFrom(rec)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
	assert.Zero(t, ms.sessionCount())
	assert.Equal(t, []string{"at-admin@spbu.id"}, fa.signedOut)

	rec = do(h, http.MethodPost, "/api/regions", `{"name":"Banten"}`, withCookie(cookie))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExpiredSessionIsDeleted(t *testing.T) {
	ms := newMemStore()
	h := newTestRouter(t, ms, newFakeAuth())

	sid := uuid.New()
	require.NoError(t, ms.CreateSession(context.Background(), store.AdminSession{
		ID: sid, UserID: "u1", Email: "old@spbu.id", ExpiresAt: time.Now().Add(-time.Minute),
	}))

	rec := do(h, http.MethodGet, "/api/auth/session", "", withCookie(&http.Cookie{Name: sessionCookie, Value: sid.String()}))
	assert.Equal(t, false, decode[map[string]any](t, rec)["authenticated"])
	assert.Zero(t, ms.sessionCount())
}

func TestSendOTPRateLimited(t *testing.T) {
	fa := newFakeAuth()
	fa.addUser("admin@spbu.id", "rahasia123")
	h := newTestRouter(t, newMemStore(), fa)

	rec := do(h, http.MethodPost, "/api/auth/send-otp", `{"email":"admin@spbu.id"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["sent"])

	rec = do(h, http.MethodPost, "/api/auth/send-otp", `{"email":"ADMIN@spbu.id"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.Equal(t, 1, fa.otpSent)

	rec = do(h, http.MethodPost, "/api/auth/send-otp", `{"email":"ghost@spbu.id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_NOT_REGISTERED", errorCode(t, rec))
	assert.Equal(t, 1, fa.otpSent)
}

func TestVerifyOTP(t *testing.T) {
	fa := newFakeAuth()
	fa.addUser("admin@spbu.id", "rahasia123")
	fa.otps["admin@spbu.id"] = "123456"
	ms := newMemStore()
	h := newTestRouter(t, ms, fa)

	rec := do(h, http.MethodPost, "/api/auth/verify-otp", `{"email":"admin@spbu.id","token":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, sessionCookieFrom(rec))

	rec = do(h, http.MethodPost, "/api/auth/verify-otp", `{"email":"admin@spbu.id","token":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, sessionCookieFrom(rec))
	assert.Equal(t, 1, ms.sessionCount())

	rec = do(h, http.MethodPost, "/api/auth/verify-email", `{"email":"admin@spbu.id","token":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, ms.sessionCount())

	rec = do(h, http.MethodPost, "/api/auth/verify-otp", `{"email":"admin@spbu.id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifySecret(t *testing.T) {
	h := newTestRouter(t, newMemStore(), nil)

	rec := do(h, http.MethodPost, "/api/auth/verify", `{"secret":"nope"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/verify", `{"secret":"`+testSecret+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["valid"])
}

func TestCreateUser(t *testing.T) {
	fa := newFakeAuth()
	h := newTestRouter(t, newMemStore(), fa)

	rec := do(h, http.MethodPost, "/api/auth/create-user", `{"email":"new@spbu.id","password":"panjang123"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/create-user", `{"email":"new@spbu.id","password":"short"}`, withSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/create-user", `{"email":"new@spbu.id","password":"panjang123"}`, withSecret)
	require.Equal(t, http.StatusCreated, rec.Code)
	_, err := fa.FindUserByEmail(context.Background(), "new@spbu.id")
	assert.NoError(t, err)

	rec = do(h, http.MethodPost, "/api/auth/create-user", `{"email":"new@spbu.id","password":"panjang123"}`, withSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
