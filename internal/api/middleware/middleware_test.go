package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientAddressOrder(t *testing.T) {
	cases := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded first entry", "203.0.113.5, 10.0.0.1", "198.51.100.1", "127.0.0.1:5000", "203.0.113.5"},
		{"forwarded single", "203.0.113.5", "", "127.0.0.1:5000", "203.0.113.5"},
		{"real ip", "", "198.51.100.1", "127.0.0.1:5000", "198.51.100.1"},
		{"remote host", "", "", "192.0.2.7:5000", "192.0.2.7"},
		{"remote without port", "", "", "192.0.2.7", "192.0.2.7"},
		{"ipv6 remote", "", "", "[::1]:5000", "::1"},
		{"nothing", "", "", "", UnknownAddress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			assert.Equal(t, tc.want, ClientAddress(r))
		})
	}
}

func TestHeaderDigest(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/", nil)
	a.Header.Set("User-Agent", "Mozilla/5.0")
	a.Header.Set("Accept-Language", "en-AU")

	b := httptest.NewRequest(http.MethodPost, "/other", nil)
	b.Header.Set("User-Agent", "Mozilla/5.0")
	b.Header.Set("Accept-Language", "en-AU")

	c := httptest.NewRequest(http.MethodGet, "/", nil)
	c.Header.Set("User-Agent", "Mozilla/5.0")
	c.Header.Set("Accept-Language", "fr-FR")

	digest := HeaderDigest(a)
	assert.Len(t, digest, headerDigestLength)
	assert.Equal(t, digest, HeaderDigest(b))
	assert.NotEqual(t, digest, HeaderDigest(c))
}

func TestClientInfoMiddleware(t *testing.T) {
	var got = GetClient(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.Equal(t, UnknownAddress, got.Address)

	h := ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClient(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5000"
	r.Header.Set("User-Agent", "test-agent")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.7", got.Address)
	assert.Equal(t, "test-agent", got.UserAgent)
	assert.Equal(t, HeaderDigest(r), got.HeaderDigest)
}

func TestCORSAllowedOrigin(t *testing.T) {
	called := false
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.True(t, called)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSDisallowedOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodOptions, "/api/leaderboard", nil)
	r.Header.Set("Origin", "http://anywhere.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://anywhere.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
