package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeWeakPassword           Code = "WEAK_PASSWORD"
	CodeInvalidUserType        Code = "INVALID_USER_TYPE"
	CodeInvalidNationalID      Code = "INVALID_NATIONAL_ID"
	CodeProfileValidation      Code = "PROFILE_VALIDATION_FAILED"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeInvalidCredentials     Code = "INVALID_CREDENTIALS"
	CodeAccountInactive        Code = "ACCOUNT_INACTIVE"
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeNotFound               Code = "NOT_FOUND"
	CodeProfileNotFound        Code = "PROFILE_NOT_FOUND"
	CodeConflict               Code = "CONFLICT"
	CodeDuplicateAccount       Code = "DUPLICATE_ACCOUNT"
	CodeRateLimit              Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal               Code = "INTERNAL_ERROR"
	CodeDependency             Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is surfaced over HTTP. PublicMessage is the
// English fallback used when the typed message is not client-facing.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ClientFacing   bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeWeakPassword: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "password does not meet the strength policy",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeInvalidUserType: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "invalid user type",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeInvalidNationalID: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "national id must be exactly 14 digits",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeProfileValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "profile validation failed",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
		ClientFacing:  true,
	},
	CodeInvalidCredentials: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid credentials",
		ClientFacing:  true,
	},
	CodeAccountInactive: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "account is inactive",
		ClientFacing:  true,
	},
	CodeAuthenticationRequired: {
		HTTPStatus:     http.StatusUnauthorized,
		PublicMessage:  "Authentication required to access this service",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
		ClientFacing:  true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ClientFacing:  true,
	},
	CodeProfileNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "profile not found",
		ClientFacing:  true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		ClientFacing:  true,
	},
	CodeDuplicateAccount: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "account already exists",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
		ClientFacing:  true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
