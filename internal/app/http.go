package app

import (
	"net"
	"net/http"
	"time"
)

// newPooledHTTPClient returns an HTTP client that keeps connections to the
// few upstream hosts warm. Per-request deadlines come from fetch.Client;
// overall bounds the whole exchange including redirects.
func newPooledHTTPClient(overall time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: overall,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   overall,
	}
}
