package auth

import "net/http"

const (
	// SessionCookieName is the client-held session artifact.
	SessionCookieName = "auth"

	// The cookie deliberately outlives the 7 day token, expiry is
	// enforced by token validation and not by cookie lifetime.
	sessionCookieMaxAge = 365 * 24 * 60 * 60 // 1 year
)

type tokenValidator interface {
	Validate(token string) (string, error)
}

// Session maps the auth cookie on inbound requests to an authentication
// decision and manages the cookie lifecycle.
type Session struct {
	tokens tokenValidator
}

func NewSession(tokens tokenValidator) *Session {
	return &Session{
		tokens: tokens,
	}
}

// Start stores the token as the client's session cookie.
func (s *Session) Start(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
	})
}

// End clears the session cookie unconditionally, valid or not.
func (s *Session) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Subject returns the authenticated subject for the request, or false
// when the cookie is missing or its token does not validate.
func (s *Session) Subject(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	subject, err := s.tokens.Validate(cookie.Value)
	if err != nil {
		return "", false
	}

	return subject, true
}

// IsAuthenticated never returns an error: an absent cookie or any
// token validation failure simply reads as "not authenticated".
func (s *Session) IsAuthenticated(r *http.Request) bool {
	_, ok := s.Subject(r)
	return ok
}
