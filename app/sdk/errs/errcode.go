package errs

import "net/http"

// ErrCode represents an error code in the system.
type ErrCode struct {
	value int
}

// Value returns the integer value of the error code.
func (ec ErrCode) Value() int {
	return ec.value
}

// String returns the string representation of the error code.
func (ec ErrCode) String() string {
	return codeNames[ec]
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (ec *ErrCode) UnmarshalText(data []byte) error {
	errName := string(data)

	v, ok := codeNumbers[errName]
	if !ok {
		return New(Internal, errUnknownCode(errName))
	}

	*ec = v

	return nil
}

// MarshalText implements the encoding.TextMarshaler interface.
func (ec ErrCode) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// Equal compares two error codes for equality.
func (ec ErrCode) Equal(ec2 ErrCode) bool {
	return ec.value == ec2.value
}

// =============================================================================

// The set of error codes the app layer returns.
var (
	OK                 = ErrCode{value: 0}
	NoContent          = ErrCode{value: 1}
	Canceled           = ErrCode{value: 2}
	Unknown            = ErrCode{value: 3}
	InvalidArgument    = ErrCode{value: 4}
	DeadlineExceeded   = ErrCode{value: 5}
	NotFound           = ErrCode{value: 6}
	AlreadyExists      = ErrCode{value: 7}
	PermissionDenied   = ErrCode{value: 8}
	ResourceExhausted  = ErrCode{value: 9}
	FailedPrecondition = ErrCode{value: 10}
	Aborted            = ErrCode{value: 11}
	OutOfRange         = ErrCode{value: 12}
	Unimplemented      = ErrCode{value: 13}
	Internal           = ErrCode{value: 14}
	Unavailable        = ErrCode{value: 15}
	DataLoss           = ErrCode{value: 16}
	Unauthenticated    = ErrCode{value: 17}
	InvalidToken       = ErrCode{value: 18}
	TooManyRequests    = ErrCode{value: 19}
	InternalOnlyLog    = ErrCode{value: 20}
)

var codeNames = map[ErrCode]string{
	OK:                 "ok",
	NoContent:          "ok_no_content",
	Canceled:           "canceled",
	Unknown:            "unknown",
	InvalidArgument:    "invalid_argument",
	DeadlineExceeded:   "deadline_exceeded",
	NotFound:           "not_found",
	AlreadyExists:      "already_exists",
	PermissionDenied:   "permission_denied",
	ResourceExhausted:  "resource_exhausted",
	FailedPrecondition: "failed_precondition",
	Aborted:            "aborted",
	OutOfRange:         "out_of_range",
	Unimplemented:      "unimplemented",
	Internal:           "internal",
	Unavailable:        "unavailable",
	DataLoss:           "data_loss",
	Unauthenticated:    "unauthenticated",
	InvalidToken:       "invalid_token",
	TooManyRequests:    "too_many_requests",
	InternalOnlyLog:    "internal_only_log",
}

var codeNumbers = func() map[string]ErrCode {
	m := make(map[string]ErrCode, len(codeNames))
	for code, name := range codeNames {
		m[name] = code
	}
	return m
}()

var httpStatus = map[ErrCode]int{
	OK:                 http.StatusOK,
	NoContent:          http.StatusNoContent,
	Canceled:           http.StatusGatewayTimeout,
	Unknown:            http.StatusInternalServerError,
	InvalidArgument:    http.StatusBadRequest,
	DeadlineExceeded:   http.StatusGatewayTimeout,
	NotFound:           http.StatusNotFound,
	AlreadyExists:      http.StatusConflict,
	PermissionDenied:   http.StatusForbidden,
	ResourceExhausted:  http.StatusTooManyRequests,
	FailedPrecondition: http.StatusBadRequest,
	Aborted:            http.StatusConflict,
	OutOfRange:         http.StatusBadRequest,
	Unimplemented:      http.StatusNotImplemented,
	Internal:           http.StatusInternalServerError,
	Unavailable:        http.StatusServiceUnavailable,
	DataLoss:           http.StatusInternalServerError,
	Unauthenticated:    http.StatusUnauthorized,
	InvalidToken:       http.StatusBadRequest,
	TooManyRequests:    http.StatusTooManyRequests,
	InternalOnlyLog:    http.StatusInternalServerError,
}
