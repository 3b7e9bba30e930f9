package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/bursar/apps/api/echo"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	type loginData struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	errAuthFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "missing credentials", method: http.MethodPost, path: "/v1/login",
			body:     marchallObj(t, loginData{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/login",
			body:     marchallObj(t, loginData{Username: "mallory", Password: adminPassword}),
			wantCode: http.StatusBadRequest, wantData: errAuthFailed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/login",
			body:     marchallObj(t, loginData{Username: adminUsername, Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: errAuthFailed,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/login", marchallObj(t, loginData{Username: " BURSAR ", Password: adminPassword}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

		claims := new(Claims)
		_, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(app.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, adminUsername, claims.Username)
		assert.Equal(t, adminUsername, claims.Subject)
		assert.WithinDuration(t, time.Now().Add(time.Hour), time.Unix(claims.ExpiresAt, 0), time.Minute)

		// the token opens authed endpoints
		req, rec = newAuthRequest(http.MethodGet, "/v1/notifications", res.Token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no admin password configured", func(t *testing.T) {
		app.conf.Server.AdminPasswordHash = ""
		defer func() { app.conf.Server.AdminPasswordHash = adminPasswordHash }()

		req, rec := newRequest(http.MethodPost, "/v1/login", marchallObj(t, loginData{Username: adminUsername, Password: adminPassword}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_authRequired(t *testing.T) {
	app := setup(t)
	app.initialize(t)

	expired := NewClaims(app.conf, adminUsername)
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expiredToken, err := GenerateToken(app.conf, expired)
	require.NoError(t, err)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/v1/students"},
		{http.MethodPost, "/v1/students"},
		{http.MethodGet, "/v1/students/S1"},
		{http.MethodDelete, "/v1/students/S1"},
		{http.MethodPost, "/v1/students/S1/payments"},
		{http.MethodGet, "/v1/fees"},
		{http.MethodPut, "/v1/fees"},
		{http.MethodPut, "/v1/fees/bulk"},
		{http.MethodGet, "/v1/summary"},
		{http.MethodPost, "/v1/reload"},
		{http.MethodGet, "/v1/notifications"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req, rec := newRequest(p.method, p.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

			req, rec = newAuthRequest(p.method, p.path, expiredToken)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
