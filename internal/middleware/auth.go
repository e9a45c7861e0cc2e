package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"
const DeviceContextKey contextKey = "device"

// AuthMiddleware verifies JWT tokens
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		tokenString := parts[1]
		cfg, _ := config.Load()

		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		// Device tokens and user tokens share the middleware; handlers that
		// care about the difference read the "type" claim.
		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		if claims["type"] == "device" {
			ctx = context.WithValue(ctx, DeviceContextKey, claims["deviceId"])
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
