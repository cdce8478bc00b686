package disco

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestErrorCode_HTTPStatusRoundTrip(t *testing.T) {
	codes := []ErrorCode{
		CodeInvalidArgument,
		CodeUnauthenticated,
		CodePermissionDenied,
		CodeNotFound,
		CodeMethodNotAllowed,
		CodeConflict,
		CodeGone,
		CodeResourceExhausted,
		CodeCanceled,
		CodeInternal,
		CodeNotImplemented,
		CodeUnavailable,
		CodeDeadlineExceeded,
	}
	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			if got := CodeFromHTTPStatus(code.HTTPStatus()); got != code {
				t.Errorf("expected %s, got %s (status %d)", code, got, code.HTTPStatus())
			}
		})
	}
}

func TestCodeFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusUnprocessableEntity, CodeInvalidArgument},
		{http.StatusPreconditionFailed, CodeConflict},
		{http.StatusBadGateway, CodeUnavailable},
		{http.StatusRequestTimeout, CodeDeadlineExceeded},
		{418, CodeInvalidArgument},
		{599, CodeInternal},
		{302, CodeUnknown},
	}
	for _, tt := range tests {
		if got := CodeFromHTTPStatus(tt.status); got != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.want, got)
		}
	}
	if CodeUnknown.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("expected unknown code to map to 500")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DescriptionError{Path: "files.list", Message: "missing path"}, "description error at files.list: missing path"},
		{&DescriptionError{Message: "nil description"}, "description error: nil description"},
		{&ParameterError{Name: "fileId", Reason: ReasonMissing}, `missing required parameter "fileId"`},
		{&ParameterError{Name: "maxResults", Reason: ReasonInvalid, Message: "must be at least 0"}, `invalid parameter "maxResults": must be at least 0`},
		{&TransportError{Message: "executing request", Cause: errors.New("refused")}, "transport error: executing request: refused"},
		{&ServiceError{StatusCode: 404, Message: "File not found"}, "service error: status 404: File not found"},
		{&ServiceError{StatusCode: 500}, "service error: status 500"},
		{&Failure{Method: "files.get", Code: CodeNotFound, Message: "gone"}, "not_found (files.get): gone"},
		{&Failure{Code: CodeInternal, Message: "oops"}, "internal: oops"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestErrorSentinels(t *testing.T) {
	cause := errors.New("root cause")
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"description", &DescriptionError{Cause: cause}, ErrDescription},
		{"parameter", &ParameterError{Cause: cause}, ErrParameter},
		{"transport", &TransportError{Cause: cause}, ErrTransport},
		{"service", &ServiceError{}, ErrService},
		{"wrapped", fmt.Errorf("call: %w", &Failure{Cause: &TransportError{}}), ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("expected errors.Is(%v, %v)", tt.err, tt.sentinel)
			}
			if errors.Is(tt.err, ErrDescription) != (tt.sentinel == ErrDescription) {
				t.Error("sentinels must not overlap")
			}
		})
	}
	if !errors.Is(&TransportError{Cause: cause}, cause) {
		t.Error("expected TransportError to unwrap to its cause")
	}
}

func TestToFailure(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
	}
	valErr := validator.New().Struct(input{})

	tests := []struct {
		name     string
		err      error
		resp     *Response
		wantCode ErrorCode
		wantMsg  string
		status   int
	}{
		{
			name:     "parameter",
			err:      &ParameterError{Name: "q", Reason: ReasonMissing},
			wantCode: CodeInvalidArgument,
			wantMsg:  `missing required parameter "q"`,
		},
		{
			name:     "service",
			err:      &ServiceError{StatusCode: 403, Message: "denied"},
			resp:     &Response{StatusCode: 403},
			wantCode: CodePermissionDenied,
			wantMsg:  "service error: status 403: denied",
			status:   403,
		},
		{
			name:     "deadline",
			err:      &TransportError{Message: "executing request", Cause: context.DeadlineExceeded},
			wantCode: CodeDeadlineExceeded,
			wantMsg:  "request timeout",
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: CodeCanceled,
			wantMsg:  "context canceled",
		},
		{
			name:     "transport",
			err:      &TransportError{StatusCode: 200, Message: "malformed response"},
			wantCode: CodeUnavailable,
			wantMsg:  "transport error: malformed response",
			status:   200,
		},
		{
			name:     "validation",
			err:      valErr,
			wantCode: CodeInvalidArgument,
			wantMsg:  "required",
		},
		{
			name:     "other",
			err:      errors.New("something broke"),
			wantCode: CodeInternal,
			wantMsg:  "something broke",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := toFailure("files.list", tt.err, tt.resp)
			if f.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, f.Code)
			}
			if f.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, f.Message)
			}
			if f.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, f.StatusCode)
			}
			if f.Method != "files.list" {
				t.Errorf("expected method files.list, got %s", f.Method)
			}
			// ValidationErrors is a slice and cannot be matched with errors.Is.
			if tt.name != "validation" && !errors.Is(f, tt.err) {
				t.Error("expected failure to unwrap to the original error")
			}
		})
	}
}

func TestServiceError_Decoding(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantMsg   string
		wantItems int
	}{
		{"empty", "", "Bad Request", 0},
		{"text", "  upstream said no \n", "upstream said no", 0},
		{"short", `{"error":"invalid query"}`, "invalid query", 0},
		{"envelope", `{"error":{"code":400,"message":"Invalid value","errors":[{"domain":"global","reason":"invalid","message":"Invalid value"}]}}`, "Invalid value", 1},
		{"no error key", `{"status":"bad"}`, "Bad Request", 0},
		{"empty envelope message", `{"error":{"errors":[]}}`, "Bad Request", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := serviceError(&Response{StatusCode: 400, Body: []byte(tt.body)})
			if e.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, e.Message)
			}
			if len(e.Errors) != tt.wantItems {
				t.Errorf("expected %d items, got %d", tt.wantItems, len(e.Errors))
			}
			if e.StatusCode != 400 {
				t.Errorf("expected status 400, got %d", e.StatusCode)
			}
		})
	}
}
