package session

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey struct{}

const cookieName = "storefront_session"

// Middleware ensures every request carries a session id: an existing
// cookie is reused, otherwise a fresh id is issued and set on the
// response. The id is available via FromContext.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string

		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			sessionID = c.Value
		} else {
			id, err := uuid.NewV4()
			if err != nil {
				log.Error().Err(err).Msg("session: failed to generate session id")
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			sessionID = id.String()
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), contextKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session id placed by Middleware, or "" if the
// request did not pass through it.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
