package bounty

import "errors"

var (
	// ErrInvalidInput marks validation failures detected before any storage
	// access.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks an id that does not resolve to a resource.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks unique-constraint violations, e.g. duplicate email.
	ErrConflict = errors.New("resource conflict")
	// ErrForbidden marks an authenticated actor lacking ownership of the
	// target resource. The HTTP layer owns the user-facing wording so that
	// wrong-owner and wrong-role failures stay indistinguishable.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials marks a failed login. Unknown email and wrong
	// password are deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
