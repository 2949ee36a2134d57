package middleware

import (
	"context"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/signmaze/internal/model"
)

// UnknownAddress is used when no client address can be determined
const UnknownAddress = "unknown"

// headerDigestLength is the number of hex characters kept from the digest
const headerDigestLength = 16

type contextKey string

const clientContextKey contextKey = "client"

// ClientInfo resolves the caller's address, user agent and header digest
// and stores them in the request context
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := model.ClientInfo{
			Address:      ClientAddress(r),
			UserAgent:    r.Header.Get("User-Agent"),
			HeaderDigest: HeaderDigest(r),
		}
		ctx := context.WithValue(r.Context(), clientContextKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClient returns the client info from context.
// Outside the ClientInfo middleware the address is UnknownAddress.
func GetClient(ctx context.Context) model.ClientInfo {
	info, ok := ctx.Value(clientContextKey).(model.ClientInfo)
	if !ok {
		return model.ClientInfo{Address: UnknownAddress}
	}
	return info
}

// ClientAddress returns the first X-Forwarded-For entry, then X-Real-IP,
// then the host of the connection's remote address
func ClientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
	return UnknownAddress
}

// HeaderDigest hashes the user agent and accept headers into a short
// stable token describing the client software
func HeaderDigest(r *http.Request) string {
	h, _ := blake2b.New256(nil)
	for _, name := range []string{"User-Agent", "Accept-Language", "Accept-Encoding"} {
		_, _ = h.Write([]byte(r.Header.Get(name)))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:headerDigestLength]
}
