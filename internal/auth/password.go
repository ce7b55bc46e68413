package auth

import (
	"errors"

	"github.com/Dan9191/quotation-service/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with a per-call random salt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost (10)
// when cost is not positive.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the encoded bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errs.Internal("failed to hash password", err)
	}
	return string(b), nil
}

// Compare reports whether password matches hash. A mismatch is (false, nil);
// a malformed hash or any other library failure is returned as an internal
// error so callers can tell it apart from bad credentials.
func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errs.Internal("failed to verify password", err)
	}
}
