package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zjoart/go-paystack-logistics/internal/key"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
)

// CurrentAccount returns the account resolved by one of the auth middlewares.
// A false second value must be treated as an authorization error; this core
// never attempts to recover a lost session itself.
func CurrentAccount(ctx context.Context) (user.User, bool) {
	usr, ok := ctx.Value(utils.UserKey).(user.User)
	return usr, ok
}

// WithAccount stores usr as the current account. Used by the middlewares and tests.
func WithAccount(ctx context.Context, usr user.User, permissions []string) context.Context {
	ctx = context.WithValue(ctx, utils.UserKey, usr)
	return context.WithValue(ctx, utils.PermissionsKey, permissions)
}

func JWTMiddleware(cfg config.Config, userRepo user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Authorization required", nil)
				return
			}

			usr, err := accountFromToken(r.Context(), cfg.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "), userRepo)
			if err != nil {
				logger.Debug("JWT rejected", logger.WithError(err))
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), *usr, []string{"*"})))
		})
	}
}

func APIKeyMiddleware(keyRepo key.Repository, userRepo user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKeyHeader := r.Header.Get("x-api-key")
			if apiKeyHeader == "" {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "API Key required", nil)
				return
			}

			apiKey, err := keyRepo.FindByKey(r.Context(), apiKeyHeader)
			if err != nil {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid API Key", nil)
				return
			}

			if apiKey.IsRevoked {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "API Key revoked", nil)
				return
			}

			if !apiKey.Usable(time.Now()) {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "API key has expired", nil)
				return
			}

			usr, err := userRepo.FindByID(r.Context(), apiKey.UserID.String())
			if err != nil {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Associated user not found", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), *usr, apiKey.Permissions)))
		})
	}
}

// UnifiedAuthMiddleware accepts either an API key or a bearer token, preferring the key.
func UnifiedAuthMiddleware(cfg config.Config, userRepo user.Repository, keyRepo key.Repository) func(http.Handler) http.Handler {
	jwtMW := JWTMiddleware(cfg, userRepo)
	keyMW := APIKeyMiddleware(keyRepo, userRepo)

	return func(next http.Handler) http.Handler {
		viaJWT := jwtMW(next)
		viaKey := keyMW(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-api-key") != "" {
				viaKey.ServeHTTP(w, r)
				return
			}
			viaJWT.ServeHTTP(w, r)
		})
	}
}

func RequirePermission(perm key.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perms, ok := r.Context().Value(utils.PermissionsKey).([]string)
			if !ok {
				utils.BuildErrorResponse(w, http.StatusForbidden, "Permissions not found", nil)
				return
			}

			hasPerm := false
			for _, p := range perms {
				if p == "*" || p == string(perm) {
					hasPerm = true
					break
				}
			}

			if !hasPerm {
				utils.BuildErrorResponse(w, http.StatusForbidden, "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func accountFromToken(ctx context.Context, secret, tokenString string, userRepo user.Repository) (*user.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userIDStr, ok := claims[utils.UserIDKey].(string)
	if !ok {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	return userRepo.FindByID(ctx, userIDStr)
}

// IssueToken signs a token for userID. The identity service owns login; this
// exists for operator tooling and tests.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		utils.UserIDKey: userID,
		utils.ExpKey:    time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
