package disco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/broady/disco/internal/callctx"
)

// Phase is a state of the dispatch state machine:
//
//	Pending -> Resolving -> Building -> Sending -> Completing -> Done
//
// A resolution or build failure jumps straight to Completing; Sending is then
// never entered. There are no retries.
type Phase int

const (
	PhasePending Phase = iota
	PhaseResolving
	PhaseBuilding
	PhaseSending
	PhaseCompleting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseResolving:
		return "resolving"
	case PhaseBuilding:
		return "building"
	case PhaseSending:
		return "sending"
	case PhaseCompleting:
		return "completing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Success is the outcome of a call that received a 2xx response.
type Success struct {
	// Payload is the decoded JSON body: nil for an empty body, a string for
	// non-JSON bodies.
	Payload    any
	StatusCode int
	Header     http.Header
	// Body is the raw response body.
	Body []byte
}

// Decode unmarshals the raw response body into v.
func (s *Success) Decode(v any) error {
	return json.Unmarshal(s.Body, v)
}

// Result is the tagged outcome of one dispatch: exactly one field is set.
type Result struct {
	Success *Success
	Failure *Failure
}

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// dispatch tracks the phase of one call.
type dispatch struct {
	m     *Method
	phase Phase
}

func (d *dispatch) enter(p Phase) {
	d.phase = p
	d.m.client.logger.Debug("dispatch",
		slog.String("method", d.m.path),
		slog.String("phase", p.String()))
	if hook := d.m.client.phaseHook; hook != nil {
		hook(d.m.path, p)
	}
}

// runRecovered is run with a panic anywhere in resolution, interceptors or
// the transport turned into an internal Failure.
func (d *dispatch) runRecovered(ctx context.Context, params Params, co *callOptions) (r Result) {
	defer func() {
		if rec := recover(); rec != nil {
			d.m.client.logger.Error("PANIC recovered in dispatch",
				slog.String("method", d.m.path),
				slog.String("phase", d.phase.String()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			d.enter(PhaseCompleting)
			r = Result{Failure: toFailure(d.m.path, fmt.Errorf("panic: %v", rec), nil)}
		}
	}()
	return d.run(ctx, params, co)
}

// run executes the state machine up to Completing and returns the result.
// It knows nothing about how the result is delivered.
func (d *dispatch) run(ctx context.Context, params Params, co *callOptions) Result {
	m := d.m

	d.enter(PhaseResolving)
	resolved, err := m.resolve(params)
	if err != nil {
		d.enter(PhaseCompleting)
		return Result{Failure: toFailure(m.path, err, nil)}
	}

	d.enter(PhaseBuilding)
	req, err := m.buildRequest(resolved, co)
	if err != nil {
		d.enter(PhaseCompleting)
		return Result{Failure: toFailure(m.path, err, nil)}
	}

	d.enter(PhaseSending)
	ctx = callctx.NewContext(ctx, &CallInfo{Service: m.client.name, Method: m.path, ID: m.ID()})
	resp, err := m.client.send(ctx, req)

	d.enter(PhaseCompleting)
	return normalize(m.path, resp, err)
}

// normalize turns a transport outcome into a Result.
func normalize(method string, resp *Response, err error) Result {
	if err != nil {
		return Result{Failure: toFailure(method, err, resp)}
	}
	if resp == nil {
		return Result{Failure: toFailure(method, &TransportError{Message: "transport returned no response"}, nil)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Failure: toFailure(method, serviceError(resp), resp)}
	}

	payload, err := decodePayload(resp)
	if err != nil {
		return Result{Failure: toFailure(method, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Cause:      err,
		}, resp)}
	}
	return Result{Success: &Success{
		Payload:    payload,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}}
}

// decodePayload decodes JSON bodies. A body declared as JSON that does not
// parse is an error; undeclared bodies fall back to a string.
func decodePayload(resp *Response) (any, error) {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil, nil
	}
	var payload any
	err := json.Unmarshal(body, &payload)
	if err == nil {
		return payload, nil
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		return nil, err
	}
	return string(resp.Body), nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
