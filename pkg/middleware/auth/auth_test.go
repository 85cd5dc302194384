package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signed(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func whoami(m *Middleware) http.Handler {
	return m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := m.GetUser(r.Context())
		w.Header().Set("X-User", u.Username)
		w.Header().Set("X-Role", u.Role.Name)
	}))
}

func TestBearerAndCookieAssertions(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	m := New(Config{PublicKey: &key.PublicKey, Issuer: "bank", Audience: "effects", AdminRole: "admin"})
	h := whoami(m)
	now := time.Now()

	good := signed(t, key, jwt.MapClaims{
		"iss": "bank", "aud": "effects", "sub": "alice", "roles": []string{"teller"},
		"iat": now.Unix(), "exp": now.Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Header().Get("X-User"))
	assert.Equal(t, "teller", rec.Header().Get("X-Role"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "assert", Value: good})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "alice", rec.Header().Get("X-User"))

	cases := map[string]jwt.MapClaims{
		"wrong issuer":   {"iss": "other", "aud": "effects", "sub": "alice", "exp": now.Add(time.Minute).Unix()},
		"wrong audience": {"iss": "bank", "aud": "x", "sub": "alice", "exp": now.Add(time.Minute).Unix()},
		"expired":        {"iss": "bank", "aud": "effects", "sub": "alice", "exp": now.Add(-time.Hour).Unix()},
		"no subject":     {"iss": "bank", "aud": "effects", "exp": now.Add(time.Minute).Unix()},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+signed(t, key, claims))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAnonymousPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	whoami(New(Config{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))
}

func TestDevBypass(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-User", "bob")
	req.Header.Set("X-Dev-Role", "auditor")

	rec := httptest.NewRecorder()
	whoami(New(Config{DevBypass: true})).ServeHTTP(rec, req)
	assert.Equal(t, "bob", rec.Header().Get("X-User"))
	assert.Equal(t, "auditor", rec.Header().Get("X-Role"))

	rec = httptest.NewRecorder()
	whoami(New(Config{})).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("X-User"))
}

func TestPredicates(t *testing.T) {
	m := New(Config{AdminRole: "admin"})
	ctx := WithUser(context.Background(), User{Username: "alice", Role: Role{Name: "teller"}})
	assert.True(t, m.IsAuthenticated(ctx))
	assert.True(t, m.IsRole(ctx, Role{Name: "teller"}))
	assert.False(t, m.IsRole(ctx, Role{Name: "auditor"}))
	assert.True(t, m.IsUser(ctx, "alice"))
	assert.False(t, m.IsAdmin(ctx))

	admin := WithUser(context.Background(), User{Username: "root", Role: Role{Name: "admin"}})
	assert.True(t, m.IsRole(admin, Role{Name: "auditor"}))
	assert.True(t, m.IsUser(admin, "alice"))

	assert.False(t, m.IsAuthenticated(context.Background()))
	assert.False(t, m.IsRole(context.Background(), Role{}))
}

func TestConfigFromEnvLoadsKeyFile(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(p, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	t.Setenv("ASSERTION_PUBLIC_KEY_FILE", p)
	t.Setenv("ASSERTION_LEEWAY_SECONDS", "5")
	cfg := ConfigFromEnv(zap.NewNop())
	require.NotNil(t, cfg.PublicKey)
	assert.True(t, key.PublicKey.Equal(cfg.PublicKey))
	assert.Equal(t, 5*time.Second, cfg.Leeway)

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)})
	k, err := ParsePublicKey(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(k))

	_, err = ParsePublicKey([]byte("nope"))
	assert.Error(t, err)
}
