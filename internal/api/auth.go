package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const tokenHeader = "X-Axtext-Token"

// withAuth requires the configured token as a Bearer token or in the
// X-Axtext-Token header. With no token configured every request passes.
// withAuth 要求请求携带配置的令牌（Bearer 或 X-Axtext-Token 头）；未配置令牌时全部放行。
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(tokenHeader)
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}

		if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.Token)) == 1 {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
