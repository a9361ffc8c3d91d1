package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GatewayErrorKind classifies why a model call failed. The planner treats all
// kinds the same way (fall back immediately rather than retry), but callers
// log the kind and operators alert on quota separately.
type GatewayErrorKind string

const (
	KindTransport GatewayErrorKind = "transport"
	KindQuota     GatewayErrorKind = "quota"
	KindTimeout   GatewayErrorKind = "timeout"
)

// GatewayError wraps a failure from the model gateway with its classification.
type GatewayError struct {
	Kind GatewayErrorKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway %s error: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayError reports whether err originated at the model gateway.
func IsGatewayError(err error) bool {
	var gerr *GatewayError
	return errors.As(err, &gerr)
}

// classifyError maps an SDK or context failure to a GatewayError.
func classifyError(err error) *GatewayError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Kind: KindTimeout, Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return &GatewayError{Kind: KindQuota, Err: err}
		case 408, 504:
			return &GatewayError{Kind: KindTimeout, Err: err}
		}
		return &GatewayError{Kind: KindTransport, Err: err}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") {
		return &GatewayError{Kind: KindQuota, Err: err}
	}
	if strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout") {
		return &GatewayError{Kind: KindTimeout, Err: err}
	}

	return &GatewayError{Kind: KindTransport, Err: err}
}
