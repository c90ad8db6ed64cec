package constants

import (
	"errors"
	"net/http"
)

// CodedError is an error that knows which HTTP status it maps to.
type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound      = NewCodedError("not found", http.StatusNotFound)
	ErrUnauthorized    = NewCodedError("unauthorized", http.StatusUnauthorized)
	ErrUnknownRetailer = NewCodedError("unknown retailer", http.StatusBadRequest)
	ErrRunInProgress   = NewCodedError("retrieval already running", http.StatusConflict)
)

var (
	// ErrNoData marks a unit that could not be fetched or whose envelope could not
	// be parsed. It is distinct from a valid response with zero offers.
	ErrNoData = errors.New("no data")
	// ErrCredentials is fatal for the run of the retailer that needs them.
	ErrCredentials = errors.New("client credentials unavailable")
)
