package syncclient

import (
	"errors"
	"fmt"
)

// ErrNoIdentity is returned by UploadScreenshot when no user is identified.
// No request is made.
var ErrNoIdentity = errors.New("screenshot upload requires an identified user")

// ErrorCode categorizes upload failures.
type ErrorCode string

const (
	// ErrCodeTransport indicates no response was received (dial, TLS,
	// timeout, cancellation).
	ErrCodeTransport ErrorCode = "TRANSPORT"

	// ErrCodeStatus indicates the service answered with a non-2xx status.
	ErrCodeStatus ErrorCode = "STATUS"

	// ErrCodeEncode indicates the request could not be built locally. Nothing
	// was sent.
	ErrCodeEncode ErrorCode = "ENCODE"
)

// maxErrorBody bounds the response body kept on a status error.
const maxErrorBody = 512

// UploadError describes a failed upload. The batch that produced it is still
// queued.
type UploadError struct {
	Code       ErrorCode
	StatusCode int    // set for ErrCodeStatus
	Body       string // first 512 bytes of the response, for ErrCodeStatus
	Err        error  // underlying cause, for ErrCodeTransport and ErrCodeEncode
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	switch e.Code {
	case ErrCodeStatus:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Code, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is an upload transport failure.
// Uses errors.As to handle wrapped errors.
func IsTransport(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsStatus reports whether err is a non-2xx response.
func IsStatus(err error) bool {
	return hasCode(err, ErrCodeStatus)
}

// IsEncode reports whether err is a local encoding failure.
func IsEncode(err error) bool {
	return hasCode(err, ErrCodeEncode)
}

func hasCode(err error, code ErrorCode) bool {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

func transportError(err error) *UploadError {
	return &UploadError{Code: ErrCodeTransport, Err: err}
}

func encodeError(err error) *UploadError {
	return &UploadError{Code: ErrCodeEncode, Err: err}
}

func statusError(code int, body []byte) *UploadError {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return &UploadError{Code: ErrCodeStatus, StatusCode: code, Body: s}
}
