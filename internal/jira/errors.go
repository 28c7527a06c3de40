package jira

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

var (
	// ErrUnauthorized matches every 401 or 403 answer.
	ErrUnauthorized = errors.New("jira rejected the credentials")
	// ErrNotConfigured is returned when no server URL is set.
	ErrNotConfigured = errors.New("no jira url configured (set jira.url in the config file)")
	// ErrNoCredentials is returned when nothing was stored by login.
	ErrNoCredentials = errors.New("not logged in (run: plaid login)")
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	return fmt.Sprintf("jira %s %s: %d %s: %s", e.Method, e.URL, e.Code, http.StatusText(e.Code), body)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// IsAuth reports whether err means the credentials are missing or rejected.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoCredentials)
}

// IsNetwork reports whether err means the server could not be reached.
func IsNetwork(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var (
		ue *url.Error
		ne net.Error
	)
	return errors.As(err, &ue) || errors.As(err, &ne)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
