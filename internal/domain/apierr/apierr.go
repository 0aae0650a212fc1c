// Package apierr classifies failures from the vendor API into typed kinds.
//
// Server messages are matched against one table of known substrings
// (messageRules) before falling back to the HTTP-like status code.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind enumerates the failure classes callers can branch on.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindTransport
	KindServer
	KindValidation
	KindUnauthorized
	KindAlreadyExists
	KindNotFound
	KindInvalidOTP
	KindTimeout
	KindMapping
)

var kindNames = [...]string{ //nolint:gochecknoglobals // name table
	KindUnknown:       "unknown",
	KindTransport:     "transport",
	KindServer:        "server",
	KindValidation:    "validation",
	KindUnauthorized:  "unauthorized",
	KindAlreadyExists: "already_exists",
	KindNotFound:      "not_found",
	KindInvalidOTP:    "invalid_otp",
	KindTimeout:       "timeout",
	KindMapping:       "mapping",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Kind sentinels for errors.Is.
var (
	ErrTransport     = &Error{Kind: KindTransport}
	ErrServer        = &Error{Kind: KindServer}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrInvalidOTP    = &Error{Kind: KindInvalidOTP}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrMapping       = &Error{Kind: KindMapping}
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Status is the envelope or HTTP status, zero when no response arrived.
	Status int
	// Message is the server's human-readable message or a local description.
	Message string
	// Op names the client operation, e.g. "login" or "poll".
	Op  string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// for every not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// New returns an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation is shorthand for a local form-field failure.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// messageRules maps known server message fragments to kinds. Matching is
// case-insensitive and the first rule that matches wins.
var messageRules = []struct { //nolint:gochecknoglobals // documented classification table
	fragment string
	kind     Kind
}{
	{"already exists", KindAlreadyExists},
	{"already registered", KindAlreadyExists},
	{"invalid otp", KindInvalidOTP},
	{"otp expired", KindInvalidOTP},
	{"incorrect otp", KindInvalidOTP},
	{"not found", KindNotFound},
	{"does not exist", KindNotFound},
	{"invalid credentials", KindUnauthorized},
	{"token is invalid", KindUnauthorized},
	{"token expired", KindUnauthorized},
	{"not authenticated", KindUnauthorized},
	{"is required", KindValidation},
	{"invalid image", KindValidation},
	{"unsupported file", KindValidation},
}

// Classify builds an *Error for a failed envelope or HTTP response.
func Classify(op string, status int, message string) *Error {
	return &Error{Kind: classify(status, message), Status: status, Message: message, Op: op}
}

func classify(status int, message string) Kind {
	lower := strings.ToLower(message)
	for _, r := range messageRules {
		if strings.Contains(lower, r.fragment) {
			return r.kind
		}
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindAlreadyExists
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindServer
	}
}
