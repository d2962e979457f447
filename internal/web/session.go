package web

import (
	"context"
	"net/http"

	"askrag/internal/session"
)

type entryKey struct{}

// withSession resolves the session cookie, issuing a new id when needed, and serialises
// the requests of one session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.config.CookieName); err == nil {
			id = c.Value
		}
		entry, newID := s.sessions.Get(id)
		// re-issued on every request so the browser expiry slides with the server TTL
		http.SetCookie(w, &http.Cookie{
			Name:     s.config.CookieName,
			Value:    newID,
			Path:     "/",
			MaxAge:   int(s.config.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		entry.Lock()
		defer entry.Unlock()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), entryKey{}, entry)))
	})
}

func entryFrom(r *http.Request) *session.Entry {
	return r.Context().Value(entryKey{}).(*session.Entry)
}
