package middleware

import (
	"context"
	"errors"
)

const DEFAULT_USER_ID_CONTEXT_KEY UserIdContextKeyType = "user_id"
const AUTH_TOKEN_CONTEXT_KEY AuthTokenContextKeyType = "auth_token"

var ErrorUserContextInvalid = errors.New("no authenticated user in context")

// GetUserFromContext returns the account id AuthMiddleware stored under key,
// or under the default key when none is given.
func GetUserFromContext(ctx context.Context, key ...string) (uint, error) {
	ctxKey := DEFAULT_USER_ID_CONTEXT_KEY
	if len(key) > 0 && key[0] != "" {
		ctxKey = UserIdContextKeyType(key[0])
	}

	userId, ok := ctx.Value(ctxKey).(uint)
	if !ok || userId == 0 {
		return 0, ErrorUserContextInvalid
	}

	return userId, nil
}

// WithUser stores userId the way AuthMiddleware does.
func WithUser(ctx context.Context, userId uint) context.Context {
	return context.WithValue(ctx, DEFAULT_USER_ID_CONTEXT_KEY, userId)
}
