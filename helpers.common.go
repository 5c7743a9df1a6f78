package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type ContextKey string

const (
	RequestIDPrefix         string     = "r"
	RequestIDHeader         string     = "X-Request-ID"
	CallerIdentityHeader    string     = "X-Caller-Identity"
	AbortedHeader           string     = "X-BKCT-ABORTED"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	CallerContextKey        ContextKey = "request.caller"
	ConnContextKey          ContextKey = "http-conn"
)

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// DecodeAppendBookRequestBody reads the content of a book append request.
// Unknown fields are rejected so a caller cannot pretend to set the id,
// the owner or the creation time.
func DecodeAppendBookRequestBody(r *http.Request, in *BookInput) error {
	if r.Body == nil {
		return errors.New("invalid append book request body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(in)
}

// ParseBookID converts the path parameter into a catalog id. Any
// non integer value is reported as an invalid index. A positive value
// too large for int64 lies past any catalog length so it is not found.
func ParseBookID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return 0, ErrBookNotFound
		}
		return 0, ErrInvalidIndex
	}
	return id, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// SaveConnInContext is the hook used by the server under ConnContext.
// It sets the underlying connection into the request context for later
// use by ReadDeadline or WriteDeadline method on *CustomResponseWriter.
func SaveConnInContext(ctx context.Context, c net.Conn) context.Context {
	return context.WithValue(ctx, ConnContextKey, c)
}

// GetConnFromContext returns the connection saved into the context or nil.
func GetConnFromContext(ctx context.Context) net.Conn {
	c, _ := ctx.Value(ConnContextKey).(net.Conn)
	return c
}
