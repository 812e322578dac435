// AngelaMos | 2026
// cookie.go

package middleware

import (
	"net/http"
	"time"
)

// SessionMaxAge mirrors the fixed token lifetime.
const SessionMaxAge = 24 * time.Hour

func SessionCookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionMaxAge / time.Second),
	}
}

// ExpiredSessionCookie overwrites the session cookie with an empty value
// that the browser drops immediately.
func ExpiredSessionCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}
