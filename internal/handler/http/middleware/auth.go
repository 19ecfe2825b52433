package middleware

import (
	"net/http"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/handler/http/response"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified access token. It must run
// after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := jwtauth.FromContext(r.Context()); err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if _, err := jwt.ActorFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hfn)
}
