package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/quill/internal/userservice"
)

// newUnitApplication returns an application without backing services, enough for the
// middleware and response helpers.
func newUnitApplication() *application {
	cfg := &Config{
		Environment:    "test",
		AccessSecret:   "access",
		RefreshSecret:  "refresh",
		ResetSecret:    "reset",
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
		ResetTTL:       time.Hour,
		TrustedOrigins: []string{"http://localhost:3000"},
		RateLimitRPS:   1,
		RateLimitBurst: 2,
	}

	return &application{
		config:      cfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		authService: userservice.NewAuthService(nil, nil, nil, newTokenManager(cfg), nil, nil, ""),
	}
}

func TestRecoverPanic(t *testing.T) {
	app := newUnitApplication()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	app.recoverPanic(handler).ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "close", res.Header().Get("Connection"))
}

func TestAuthenticate(t *testing.T) {
	app := newUnitApplication()

	token, err := newTokenManager(app.config).Generate(userservice.AccessToken, 7, userservice.RoleNormal, nil)
	require.NoError(t, err)

	refresh, err := newTokenManager(app.config).Generate(userservice.RefreshToken, 7, userservice.RoleNormal, nil)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		cookie     string
		header     string
		wantStatus  int
		wantUserID  int
		wantAuthErr bool
	}{
		{name: "anonymous", wantStatus: http.StatusOK},
		{name: "cookie", cookie: token, wantStatus: http.StatusOK, wantUserID: 7},
		{name: "bearer header", header: "Bearer " + token, wantStatus: http.StatusOK, wantUserID: 7},
		{name: "malformed header", header: "Token " + token, wantStatus: http.StatusOK},
		{name: "invalid token", cookie: "garbage", wantStatus: http.StatusOK, wantAuthErr: true},
		{name: "refresh token as access token", cookie: refresh, wantStatus: http.StatusOK, wantAuthErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUserID int
			var gotAuthErr error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims := app.getClaimsContext(r); claims != nil {
					gotUserID = claims.UserID
				}
				gotAuthErr = app.getAuthErrContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: authCookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			res := httptest.NewRecorder()

			app.trackUploads(app.authenticate(next)).ServeHTTP(res, req)

			assert.Equal(t, tc.wantStatus, res.Code)
			assert.Equal(t, tc.wantUserID, gotUserID)
			assert.Equal(t, tc.wantAuthErr, gotAuthErr != nil)
			assert.Nil(t, authCookie(res.Header()))
		})
	}
}

func TestRequireAuthUser(t *testing.T) {
	app := newUnitApplication()

	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}

	req := httptest.NewRequest(http.MethodPost, "/blog", nil)
	res := httptest.NewRecorder()
	app.requireAuthUser(next).ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	req = app.createClaimsContext(httptest.NewRequest(http.MethodPost, "/blog", nil), &userservice.Claims{UserID: 1})
	res = httptest.NewRecorder()
	app.requireAuthUser(next).ServeHTTP(res, req)
	assert.Equal(t, http.StatusNoContent, res.Code)

	req = httptest.NewRequest(http.MethodPost, "/blog", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: "garbage"})
	res = httptest.NewRecorder()
	app.trackUploads(app.authenticate(app.requireAuthUser(next))).ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	cookie := authCookie(res.Header())
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestExpiredTokenOnPublicRoutes(t *testing.T) {
	app := newUnitApplication()

	expiredCfg := *app.config
	expiredCfg.AccessTTL = -time.Minute
	expired, err := newTokenManager(&expiredCfg).Generate(userservice.AccessToken, 7, userservice.RoleNormal, nil)
	require.NoError(t, err)

	refresh, err := newTokenManager(app.config).Generate(userservice.RefreshToken, 7, userservice.RoleNormal, nil)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "refresh", method: http.MethodPost, path: "/auth/refresh-token", body: `{"refreshToken":"` + refresh + `"}`, wantStatus: http.StatusOK},
		{name: "signout", method: http.MethodPost, path: "/auth/signout", wantStatus: http.StatusOK},
		{name: "health check", method: http.MethodGet, path: "/healthcheck", wantStatus: http.StatusOK},
		{name: "protected", method: http.MethodPost, path: "/blog", body: `{}`, wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(&http.Cookie{Name: authCookieName, Value: expired})
			res := httptest.NewRecorder()

			app.routes().ServeHTTP(res, req)

			assert.Equal(t, tc.wantStatus, res.Code, res.Body.String())
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := newUnitApplication()

	handler := app.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		codes = append(codes, res.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestCORS(t *testing.T) {
	app := newUnitApplication()

	handler := app.cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/blog", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, "http://localhost:3000", res.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/blog", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}
