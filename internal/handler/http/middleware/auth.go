package middleware

import (
	"net/http"

	"github.com/corepay/payroll-engine-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests whose verified token is missing or is not an
// access token.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.Unauthorized(w, "missing access token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.Unauthorized(w, "invalid access token")
				return
			}
			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "invalid access token")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Actor extracts the authenticated user id from the verified token. Handlers
// use it as the audit identity on run mutations.
func Actor(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}
