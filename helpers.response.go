package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var EmptyData = struct{}{}

// StatusClientClosedRequest is the Nginx non standard status code.
const StatusClientClosedRequest = 499

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size.
// The underlying network connection is tracked for dynamic read/write
// deadline setup.
type CustomResponseWriter struct {
	http.ResponseWriter
	conn  net.Conn
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter, c net.Conn) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		conn:           c,
		code:           http.StatusOK,
	}
}

// WriteHeader records the status code and only forwards the first call.
// Once the request was aborted nothing reaches the client anymore.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if cw.Header().Get(AbortedHeader) != "" {
		cw.code = code
		cw.wrote = true
		return
	}

	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.ResponseWriter and counts written bytes.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if cw.Header().Get(AbortedHeader) != "" {
		return 0, fmt.Errorf("handler: request timed out or cancelled")
	}

	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}

	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// SetWriteDeadline rewrites the underlying connection write deadline.
// This is called by http.ResponseController SetWriteDeadline method.
func (cw *CustomResponseWriter) SetWriteDeadline(t time.Time) error {
	if cw.conn == nil {
		return http.ErrNotSupported
	}
	return cw.conn.SetWriteDeadline(t)
}

// SetReadDeadline rewrites the underlying connection read deadline.
func (cw *CustomResponseWriter) SetReadDeadline(t time.Time) error {
	if cw.conn == nil {
		return http.ErrNotSupported
	}
	return cw.conn.SetReadDeadline(t)
}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	RequestID string      `json:"requestid"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

// APIResponse is the data model sent when a request succeed.
// The `total` field is only set for list calls.
type APIResponse struct {
	RequestID string      `json:"requestid"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Total     *int        `json:"total,omitempty"`
	Data      interface{} `json:"data"`
}

func NewAPIError(requestid string, status int, message string, data interface{}) *APIError {
	return &APIError{
		RequestID: requestid,
		Status:    status,
		Message:   message,
		Data:      data,
	}
}

func GenericResponse(requestid string, status int, message string, total *int, data interface{}) *APIResponse {
	return &APIResponse{
		RequestID: requestid,
		Status:    status,
		Message:   message,
		Total:     total,
		Data:      data,
	}
}

// writeContextStatus records 504 when the request processing timed out and
// 499 when the client went away. The timeout handler already answered.
func writeContextStatus(ctx context.Context, w http.ResponseWriter) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		w.WriteHeader(http.StatusGatewayTimeout)
	} else {
		w.WriteHeader(StatusClientClosedRequest)
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse is used to send error response to client.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, errResp *APIError) error {
	if err := writeContextStatus(ctx, w); err != nil {
		return err
	}
	return writeJSON(w, errResp.Status, errResp)
}

// WriteResponse is used to send success api response to client.
func WriteResponse(ctx context.Context, w http.ResponseWriter, resp *APIResponse) error {
	if err := writeContextStatus(ctx, w); err != nil {
		return err
	}
	return writeJSON(w, resp.Status, resp)
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}
