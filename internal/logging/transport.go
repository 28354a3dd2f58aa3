package logging

import (
	"net/http"
	"time"
)

// Transport logs every request that passes through it at debug level.
// Query strings are logged, request bodies are not.
type Transport struct {
	Base   http.RoundTripper
	Logger Logger

	now func() time.Time
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{Base: base, Logger: OrNoOp(logger), now: time.Now}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	now := t.now
	if now == nil {
		now = time.Now
	}

	start := now()

	resp, err := t.Base.RoundTrip(req)

	elapsed := now().Sub(start)

	if err != nil {
		t.Logger.Error("http request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"duration", elapsed,
			"error", err,
		)

		return nil, err
	}

	t.Logger.Debug("http request",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", elapsed,
	)

	return resp, nil
}
