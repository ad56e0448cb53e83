package utils

import "net/http"

// ErrorKind classifies a request failure. Every public endpoint maps its failures onto this
// taxonomy; anything unrecognized is reported as KindService with a generic message.
type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindNotFound            ErrorKind = "not_found"
	KindUnsupportedCurrency ErrorKind = "unsupported_currency"
	KindInvalidContestant   ErrorKind = "invalid_contestant"
	KindTransactionRejected ErrorKind = "transaction_rejected"
	KindGateway             ErrorKind = "gateway_error"
	KindService             ErrorKind = "service_error"
)

// APIError is a caller-visible failure with a stable kind. Message is safe to echo;
// internal details stay in the server log.
type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindGateway:
		return http.StatusBadGateway
	case KindService:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

// WriteError writes the public error shape {"error": "..."} with the status derived from
// the error kind. Non-APIError values become a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = &APIError{Kind: KindService, Message: "Something went wrong, please try again"}
	}
	WriteRaw(w, apiErr.HTTPStatus(), map[string]string{"error": apiErr.Message})
}
