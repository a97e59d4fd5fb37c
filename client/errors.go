package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRefreshTokenMissing is returned when a 401 cannot be recovered
	// because no refresh token is stored.
	ErrRefreshTokenMissing = errors.New("no refresh token stored")

	// ErrCartConflict is returned by CartAdd when the item belongs to another
	// restaurant or branch than the cart.
	ErrCartConflict = errors.New("cart belongs to another restaurant or branch")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
