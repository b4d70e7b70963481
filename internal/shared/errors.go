package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated indicates the request carries no usable principal.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnauthorized indicates the principal lacks the required permissions.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks malformed input records.
	ErrValidation = errors.New("validation failed")
)

// UserSafeMessage hides internal error details from API responses.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested data was not found"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first"
	case errors.Is(err, ErrUnauthorized):
		return "You do not have access to this page"
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "Something went wrong, please try again later"
	}
}
