package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

const maxResponseBytes = 1 << 20

// errorEnvelope is the error half of the {"data","error"} envelope every
// service in the platform responds with.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// byStatus builds the local AppError for a downstream 4xx or 503. The
// message is already prefixed with the service name.
var byStatus = map[int]func(message string) *apperrors.AppError{
	http.StatusBadRequest:         apperrors.InvalidInput,
	http.StatusUnauthorized:       apperrors.Unauthorized,
	http.StatusForbidden:          apperrors.Forbidden,
	http.StatusConflict:           apperrors.Conflict,
	http.StatusServiceUnavailable: apperrors.ServiceUnavailable,
}

// ParseResponseError consumes and closes a non-2xx response and returns the
// matching error. Structured 4xx and 503 bodies become AppErrors; other 5xx
// and unstructured bodies become plain errors.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, raw)
	}
	return fromDownstream(resp.StatusCode, env.Error.Code, env.Error.Message, serviceName)
}

func fromDownstream(status int, code, message, serviceName string) error {
	if status == http.StatusNotFound {
		return apperrors.NotFound(serviceName, message)
	}
	qualified := serviceName + ": " + message
	if build, ok := byStatus[status]; ok {
		return build(qualified)
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	}
	return &apperrors.AppError{Code: code, Message: qualified, Status: status}
}

// DecodeJSON decodes a 2xx response body into out, or translates an error
// response with ParseResponseError. The body is always closed.
func DecodeJSON(resp *http.Response, out any, serviceName string) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", serviceName, err)
	}
	return nil
}
