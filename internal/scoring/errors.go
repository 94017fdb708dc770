package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/skullking-companion/pkg/scoredto"
)

// ErrTransport matches every failed call to the scoring service.
var ErrTransport = errors.New("scoring service unavailable")

// TransportError is a recoverable failure of one scoring-service call.
// Status is 0 when the request never got an HTTP response.
type TransportError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("scoring ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status=%d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Retryable reports whether a later identical call may succeed.
func (e *TransportError) Retryable() bool {
	return e.Status == 0 || shouldRetryStatus(e.Status)
}

func detailFrom(body []byte) string {
	var eb scoredto.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Detail) != "" {
		return eb.Detail
	}
	return truncate(strings.TrimSpace(string(body)), 256)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
