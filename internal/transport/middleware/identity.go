package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/pkg/ctxutil"
)

// Identity reads the caller identity the API gateway injects as
// X-User-Id and X-Org-Id headers. Requests without a valid user id are
// rejected: every route below this middleware is user-scoped.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-User-Id"))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := ctxutil.WithUserID(r.Context(), userID)

		if orgID, err := uuid.Parse(r.Header.Get("X-Org-Id")); err == nil {
			ctx = ctxutil.WithOrgID(ctx, orgID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
