package auth

import (
	"context"
	"fmt"
	"net/http"
)

// Service is the sign-in surface used by the HTTP layer: it glues
// credential verification, token issuing and the session cookie.
type Service struct {
	verifier *Verifier
	tokens   *TokenService
	session  *Session
}

func NewService(verifier *Verifier, tokens *TokenService, session *Session) *Service {
	return &Service{
		verifier: verifier,
		tokens:   tokens,
		session:  session,
	}
}

// SignIn verifies the credentials, mints a session token and sets it as
// the client's session cookie.
func (s *Service) SignIn(ctx context.Context, w http.ResponseWriter, email, password string) error {
	admin, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(admin.Email)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	s.session.Start(w, token)
	return nil
}

func (s *Service) SignOut(w http.ResponseWriter) {
	s.session.End(w)
}

func (s *Service) IsAuthenticated(r *http.Request) bool {
	return s.session.IsAuthenticated(r)
}

func (s *Service) Subject(r *http.Request) (string, bool) {
	return s.session.Subject(r)
}
