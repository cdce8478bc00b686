package disco

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrDescription indicates a malformed service description.
	ErrDescription = errors.New("description error")

	// ErrParameter indicates a missing or invalid call parameter.
	ErrParameter = errors.New("parameter error")

	// ErrTransport indicates a network failure or a malformed response.
	ErrTransport = errors.New("transport error")

	// ErrService indicates the remote service answered with a non-2xx status.
	ErrService = errors.New("service error")
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodeUnauthenticated   ErrorCode = "unauthenticated"
	CodePermissionDenied  ErrorCode = "permission_denied"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeConflict          ErrorCode = "conflict"
	CodeGone              ErrorCode = "gone"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeInternal          ErrorCode = "internal"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
	CodeUnknown           ErrorCode = "unknown"
)

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeConflict:
		return http.StatusConflict
	case CodeGone:
		return http.StatusGone
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeCanceled:
		return 499 // Client Closed Request (Nginx standard)
	case CodeInternal:
		return http.StatusInternalServerError
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// CodeFromHTTPStatus maps a response status to an ErrorCode.
// It is the inverse of ErrorCode.HTTPStatus for the statuses that has.
func CodeFromHTTPStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidArgument
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusConflict, http.StatusPreconditionFailed:
		return CodeConflict
	case http.StatusGone:
		return CodeGone
	case http.StatusTooManyRequests:
		return CodeResourceExhausted
	case 499:
		return CodeCanceled
	case http.StatusNotImplemented:
		return CodeNotImplemented
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return CodeUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CodeDeadlineExceeded
	}
	switch {
	case status >= 500:
		return CodeInternal
	case status >= 400:
		return CodeInvalidArgument
	default:
		return CodeUnknown
	}
}

// DescriptionError reports a malformed service description. It is returned by
// New and aborts client construction.
type DescriptionError struct {
	// Path is the dotted location of the offending entry, e.g. "files.list".
	Path    string
	Message string
	Cause   error
}

func (e *DescriptionError) Error() string {
	msg := "description error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DescriptionError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrDescription.
func (e *DescriptionError) Is(target error) bool { return target == ErrDescription }

// ParamReason classifies a ParameterError.
type ParamReason string

const (
	ReasonMissing ParamReason = "missing"
	ReasonInvalid ParamReason = "invalid"
)

// ParameterError reports a missing or invalid call parameter.
type ParameterError struct {
	Name    string
	Reason  ParamReason
	Message string
	Cause   error
}

func (e *ParameterError) Error() string {
	var msg string
	switch e.Reason {
	case ReasonMissing:
		msg = fmt.Sprintf("missing required parameter %q", e.Name)
	default:
		msg = fmt.Sprintf("invalid parameter %q", e.Name)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ParameterError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrParameter.
func (e *ParameterError) Is(target error) bool { return target == ErrParameter }

// TransportError reports a network failure or a response that could not be decoded.
type TransportError struct {
	// StatusCode is set when a response was received but could not be used.
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := "transport error"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ServiceError is a structured non-2xx response from the remote service.
type ServiceError struct {
	StatusCode int
	Message    string
	// Errors holds the itemized errors of a discovery error envelope.
	Errors []ServiceErrorItem
	// Payload is the decoded response body (nil if empty, string if not JSON).
	Payload any
}

// ServiceErrorItem is one entry of the "errors" list of a discovery error envelope.
type ServiceErrorItem struct {
	Domain   string `json:"domain,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
	Location string `json:"location,omitempty"`
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("service error: status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrService.
func (e *ServiceError) Is(target error) bool { return target == ErrService }

// Failure is the single shape every per-call error is delivered in, whatever the
// completion mode. Cause holds the typed error (*ParameterError, *TransportError,
// *ServiceError, or a context error).
type Failure struct {
	// Method is the dotted method path, e.g. "files.list".
	Method     string
	StatusCode int
	Code       ErrorCode
	Message    string
	Cause      error
	// Response is the raw response when one was received.
	Response *Response
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(string(f.Code))
	if f.Method != "" {
		b.WriteString(" (" + f.Method + ")")
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Cause }

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// toFailure normalizes any per-call error into a *Failure.
func toFailure(method string, err error, resp *Response) *Failure {
	f := &Failure{
		Method:   method,
		Message:  err.Error(),
		Cause:    err,
		Response: resp,
	}
	if resp != nil {
		f.StatusCode = resp.StatusCode
	}

	var (
		paramErr *ParameterError
		svcErr   *ServiceError
		tErr     *TransportError
		valErrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &paramErr):
		f.Code = CodeInvalidArgument
		f.Message = paramErr.Error()
	case errors.As(err, &svcErr):
		f.StatusCode = svcErr.StatusCode
		f.Code = CodeFromHTTPStatus(svcErr.StatusCode)
		f.Message = svcErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		f.Code = CodeDeadlineExceeded
		f.Message = "request timeout"
	case errors.Is(err, context.Canceled):
		f.Code = CodeCanceled
		f.Message = "context canceled"
	case errors.As(err, &tErr):
		if tErr.StatusCode != 0 {
			f.StatusCode = tErr.StatusCode
		}
		f.Code = CodeUnavailable
	case errors.As(err, &valErrs):
		f.Code = CodeInvalidArgument
		msgs := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msgs = append(msgs, formatValidationError(ve))
		}
		f.Message = strings.Join(msgs, "; ")
	default:
		f.Code = CodeInternal
	}
	return f
}

// serviceError decodes a non-2xx response into a *ServiceError. Both the
// discovery envelope {"error": {"code", "message", "errors"}} and the short
// form {"error": "message"} are understood.
func serviceError(resp *Response) *ServiceError {
	e := &ServiceError{StatusCode: resp.StatusCode}
	if len(resp.Body) == 0 {
		e.Message = http.StatusText(resp.StatusCode)
		return e
	}

	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		e.Payload = string(resp.Body)
		e.Message = strings.TrimSpace(string(resp.Body))
		return e
	}
	e.Payload = payload

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(resp.Body, &envelope) != nil || len(envelope.Error) == 0 {
		e.Message = http.StatusText(resp.StatusCode)
		return e
	}

	var short string
	if json.Unmarshal(envelope.Error, &short) == nil {
		e.Message = short
		return e
	}
	var long struct {
		Message string             `json:"message"`
		Errors  []ServiceErrorItem `json:"errors"`
	}
	if json.Unmarshal(envelope.Error, &long) == nil {
		e.Message = long.Message
		e.Errors = long.Errors
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "url":
		return "must be a valid URL"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
