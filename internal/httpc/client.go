// Package httpc provides HTTP clients tuned for talking to local services.
// Use this instead of http.DefaultClient to ensure timeouts are set.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations. The gaze service runs on loopback,
// so anything slower than a couple of seconds is treated as a failure.
const (
	DefaultTimeout         = 2 * time.Second
	DefaultConnectTimeout  = 1 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client is a shared HTTP client with the default timeout.
var Client = NewClient(DefaultTimeout)

// NewClient creates a new HTTP client with the specified overall timeout.
// Connections are kept alive: a poller hits the same host ten times a second.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
