package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Response is a successful (2xx) backend response with its body read in
// full.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       json.RawMessage
}

// Result gives access to the body without committing to a shape.
func (r *Response) Result() gjson.Result {
	return gjson.ParseBytes(r.Data)
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ResponseError is returned for every non-2xx response. The body is kept
// verbatim for the caller to interpret.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *ResponseError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if len(msg) > 200 {
		msg = msg[:200] + "...(truncated)"
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// StatusCode returns the backend status carried by err, or 0 if err did
// not come from a backend response.
func StatusCode(err error) int {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// IsTimeout reports whether err is the client giving up on a request.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
