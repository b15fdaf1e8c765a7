package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSession_StartSetsCookie(t *testing.T) {
	session := NewSession(newTestTokenService(t, "test-signing-key"))

	rr := httptest.NewRecorder()
	session.Start(rr, "some-token")

	cookie := responseCookie(t, rr)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Equal(t, "some-token", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 365*24*60*60, cookie.MaxAge)
}

func TestSession_EndClearsCookie(t *testing.T) {
	session := NewSession(newTestTokenService(t, "test-signing-key"))

	rr := httptest.NewRecorder()
	session.End(rr)

	cookie := responseCookie(t, rr)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestSession_Subject(t *testing.T) {
	tokenService := newTestTokenService(t, "test-signing-key")
	session := NewSession(tokenService)

	token, err := tokenService.Issue("admin@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

	subject, ok := session.Subject(req)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", subject)
	assert.True(t, session.IsAuthenticated(req))
}

func TestSession_NotAuthenticated(t *testing.T) {
	session := NewSession(newTestTokenService(t, "test-signing-key"))

	// no cookie at all
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := session.Subject(req)
	assert.False(t, ok)
	assert.False(t, session.IsAuthenticated(req))

	// cookie present but the token is garbage
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	assert.False(t, session.IsAuthenticated(req))

	// token signed with a different key
	foreign := newTestTokenService(t, "some-other-key")
	token, err := foreign.Issue("admin@example.com")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	assert.False(t, session.IsAuthenticated(req))
}
