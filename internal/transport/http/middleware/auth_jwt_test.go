package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yolo-backend/internal/core/auth"
	"yolo-backend/internal/domain"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

type body struct {
	Code int    `json:"code"`
	Kind string `json:"kind"`
	Data struct {
		UID     string `json:"uid"`
		IsAdmin bool   `json:"isAdmin"`
	} `json:"data"`
}

func engine(v Verifier, requireAdmin bool, called *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/p", AuthJWT(v, requireAdmin), func(c *gin.Context) {
		*called = true
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"uid": c.GetString(KeyUserID), "isAdmin": claims.IsAdmin}})
	})
	return r
}

func call(t *testing.T, r *gin.Engine, authz string) (int, body) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return w.Code, b
}

func TestAuthJWT_Missing(t *testing.T) {
	j := &auth.JWTer{Secret: secret}
	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "token-without-scheme"} {
		called := false
		code, b := call(t, engine(j, false, &called), h)
		assert.Equal(t, http.StatusUnauthorized, code, h)
		assert.Equal(t, string(domain.KindAuthRequired), b.Kind, h)
		assert.False(t, called, h)
	}
}

func TestAuthJWT_InvalidOrExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	j := &auth.JWTer{Secret: secret, TTL: time.Hour, Now: func() time.Time { return now }}
	tok, err := j.Issue("u1", false, "alice")
	require.NoError(t, err)

	called := false
	r := engine(j, false, &called)

	code, b := call(t, r, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, string(domain.KindAuthFailed), b.Kind)

	now = now.Add(2 * time.Hour)
	code, b = call(t, r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, string(domain.KindAuthFailed), b.Kind)
	assert.False(t, called)
}

func TestAuthJWT_ValidSetsClaims(t *testing.T) {
	j := &auth.JWTer{Secret: secret}
	tok, err := j.Issue("u1", false, "alice")
	require.NoError(t, err)

	called := false
	code, b := call(t, engine(j, false, &called), "bearer "+tok)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, called)
	assert.Equal(t, "u1", b.Data.UID)
	assert.False(t, b.Data.IsAdmin)
}

func TestAuthJWT_RequireAdmin(t *testing.T) {
	j := &auth.JWTer{Secret: secret}
	userTok, err := j.Issue("u1", false, "alice")
	require.NoError(t, err)
	adminTok, err := j.Issue("u2", true, "root")
	require.NoError(t, err)

	called := false
	r := engine(j, true, &called)
	code, b := call(t, r, "Bearer "+userTok)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, string(domain.KindForbidden), b.Kind)
	assert.False(t, called)

	code, b = call(t, r, "Bearer "+adminTok)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, called)
	assert.True(t, b.Data.IsAdmin)
}

func TestRequireOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.ErrorIs(t, RequireOwner(c, "u1"), domain.ErrAuthRequired)

	c.Set(KeyClaims, &auth.Claims{UID: "u1", IsAdmin: true})
	assert.NoError(t, RequireOwner(c, "u1"))
	assert.ErrorIs(t, RequireOwner(c, "u2"), domain.ErrForbidden)
	assert.ErrorIs(t, RequireOwner(c, ""), domain.ErrForbidden)
}
