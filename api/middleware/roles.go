package middleware

import (
	"net/http"

	"github.com/scrapbid/scrapbid-backend/api/responses"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
)

// RequireRole rejects requests whose authenticated role does not match.
// It assumes Auth already ran and populated the request context.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := RoleFromContext(r.Context()); got != role {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "requires "+role+" role")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
