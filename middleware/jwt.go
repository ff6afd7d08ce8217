package middleware

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"go.ule.co/platform/core"
)

func jwtPurposeEqual(aud jwt.ClaimStrings, purpose core.JWTPurpose) bool {
	return slices.Contains(aud, string(purpose))
}
