package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/mjovanovic/courseadmin/pkg"
)

const maxPasswordLength = 200

// dummy bcrypt hash, compared against when the email is unknown so that
// response timing does not reveal whether an admin record exists
const unknownAdminHash = "$2a$14$6Gmhg85si2etd3K9oB8nYu1cxfbrdmhkg6wI6OXsa88IF4L2r/L9i"

type adminGetter interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}

// Verifier checks submitted sign-in credentials against stored admin
// records. It is read-only and safe for concurrent use.
type Verifier struct {
	admins adminGetter
}

func NewVerifier(admins adminGetter) *Verifier {
	return &Verifier{
		admins: admins,
	}
}

// Verify returns the matching admin record, ErrWrongCredentials when no
// record matches, or a wrapped store error on infrastructure failure.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*Admin, error) {
	if err := validateSignInInput(email, password); err != nil {
		return nil, err
	}

	admin, err := v.admins.GetByEmail(ctx, email)
	if errors.Is(err, ErrAdminNotFound) {
		pkg.CheckPasswordHash(password, unknownAdminHash)
		return nil, ErrWrongCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if !pkg.CheckPasswordHash(password, admin.PasswordHash) {
		return nil, ErrWrongCredentials
	}

	return admin, nil
}

func validateSignInInput(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email empty", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: wrong email format", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password empty", ErrInvalidInput)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password too long", ErrInvalidInput)
	}
	return nil
}
