// internal/harness/client.go
package harness

import (
	"net"
	"net/http"
	"time"
)

// newPooledClient returns an HTTP client whose connection pool is bounded at
// the run's concurrency level, with keep-alives enabled so that successive
// waves reuse connections instead of paying per-request handshakes.
func newPooledClient(concurrency int, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        concurrency,
		MaxIdleConnsPerHost: concurrency,
		MaxConnsPerHost:     concurrency,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: false,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
