package middleware

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/service"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionCookieName is the cookie carrying the chat session id.
const SessionCookieName = "docgpt_session"

// SessionStore resolves session ids from the cookie.
type SessionStore interface {
	GetOrCreate(id string) (*service.Session, bool)
}

// Sessions attaches the caller's chat session to the request context,
// starting a new one (and setting the cookie) when the cookie is missing or
// refers to an evicted session.
func Sessions(store SessionStore, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				id = c.Value
			}

			session, created := store.GetOrCreate(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    session.ID(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session from context.
func GetSession(ctx context.Context) *service.Session {
	session, _ := ctx.Value(SessionKey).(*service.Session)
	return session
}

// GetSessionID returns the session id from context, or "".
func GetSessionID(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.ID()
	}
	return ""
}
