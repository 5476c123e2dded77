package api

import (
	"net/http"
	"strings"

	"github.com/raushankrgupta/fish-scout/utils"
)

// requireToken checks the bearer token when JWT_SECRET is configured
func (s *Server) requireToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.JWTSecret == "" || r.Method == http.MethodOptions {
			next(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			utils.RespondError(w, nil, "Authorization token required", http.StatusUnauthorized)
			return
		}
		if _, err := utils.ValidateToken(s.cfg.JWTSecret, tokenString); err != nil {
			utils.RespondError(w, nil, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	})
}
