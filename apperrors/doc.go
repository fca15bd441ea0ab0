// Package apperrors defines the error taxonomy shared by the execution and
// analysis engines.
//
// Every failure that crosses an engine boundary is an *Error carrying a Kind.
// The request façade maps kinds to HTTP status codes with HTTPStatus, so
// client-caused failures become 400-class responses and everything else 500.
//
// Usage:
//
//	if errors.Is(err, apperrors.ErrTimeout) {
//	    // guest program ran too long
//	}
//	status := apperrors.HTTPStatus(err)
package apperrors
