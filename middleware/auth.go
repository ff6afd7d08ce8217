package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.uber.org/zap"
)

type AuthTokenContextKeyType string
type UserIdContextKeyType string

type FindAuthTokenFunc func(r *http.Request) string

const unauthorizedMessage = "No autorizado"

func FindAuthToken(r *http.Request, cookieName string) string {
	authHeader := ParseAuthTokenHeader(r.Header)

	if authHeader != "" {
		return authHeader
	}

	if cookie, err := r.Cookie(cookieName); cookie != nil && err == nil {
		return cookie.Value
	}

	return ""
}

func ParseAuthTokenHeader(headers http.Header) string {
	authHeader := headers.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	authHeader = strings.TrimPrefix(authHeader, "Bearer ")
	authHeader = strings.TrimPrefix(authHeader, "bearer ")

	return strings.TrimSpace(authHeader)
}

type AuthMiddlewareOptions struct {
	Config         config.Manager
	Users          core.UserService
	Logger         *core.Logger
	FindToken      FindAuthTokenFunc
	Purpose        core.JWTPurpose
	AuthContextKey string
}

// AuthMiddleware admits requests carrying a valid session token for an
// existing account. Every rejection is the same bare 401.
func AuthMiddleware(options AuthMiddlewareOptions) func(http.Handler) http.Handler {
	if options.AuthContextKey == "" {
		options.AuthContextKey = string(DEFAULT_USER_ID_CONTEXT_KEY)
	}

	if options.FindToken == nil {
		options.FindToken = func(r *http.Request) string {
			return FindAuthToken(r, core.AUTH_COOKIE_NAME)
		}
	}

	cfg := options.Config.Config().Core
	domain := cfg.Domain

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func() {
				http.Error(w, unauthorizedMessage, http.StatusUnauthorized)
			}

			authToken := options.FindToken(r)
			if authToken == "" {
				deny()
				return
			}

			privateKey, err := cfg.Identity.PrivateKey()
			if err != nil {
				options.Logger.Error("identity key unusable", zap.Error(err))
				deny()
				return
			}

			claim, err := core.JWTVerifyToken(authToken, domain, privateKey, func(claim *jwt.RegisteredClaims) error {
				aud, _ := claim.GetAudience()

				if options.Purpose != core.JWTPurposeNone && !jwtPurposeEqual(aud, options.Purpose) {
					return core.ErrJWTInvalid
				}

				return nil
			})
			if err != nil {
				options.Logger.Debug("rejected session token", zap.Error(err))
				deny()
				return
			}

			userId, err := core.JWTSubjectUserID(claim)
			if err != nil {
				deny()
				return
			}

			exists, _, err := options.Users.AccountExists(r.Context(), userId)
			if err != nil {
				options.Logger.Error("failed to check account", zap.Uint("user_id", userId), zap.Error(err))
				deny()
				return
			}

			if !exists {
				deny()
				return
			}

			ctx := context.WithValue(r.Context(), UserIdContextKeyType(options.AuthContextKey), userId)
			ctx = context.WithValue(ctx, AUTH_TOKEN_CONTEXT_KEY, authToken)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
