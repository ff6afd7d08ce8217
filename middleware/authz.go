package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"go.ule.co/platform/core"
)

type AuthzOptions struct {
	Users  core.UserService
	Casbin *casbin.Enforcer
	Role   string
}

// AuthzMiddleware must run after AuthMiddleware. It requires the caller to
// hold Role and the casbin policy to allow the route for that role.
func AuthzMiddleware(options AuthzOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func() {
				http.Error(w, unauthorizedMessage, http.StatusUnauthorized)
			}

			userId, err := GetUserFromContext(r.Context())
			if err != nil {
				deny()
				return
			}

			exists, m, err := options.Users.AccountExists(r.Context(), userId)
			if err != nil || !exists {
				deny()
				return
			}

			if options.Role != m.Role {
				deny()
				return
			}

			ok, err := options.Casbin.Enforce(m.Role, r.URL.Path, r.Method)
			if err != nil || !ok {
				deny()
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
