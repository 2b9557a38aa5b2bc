package httpclient

import (
	"net"
	"net/http"
	"time"
)

// TransportConfig holds connection pool settings for outbound HTTP.
type TransportConfig struct {
	MaxConnsPerHost       int
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
}

// DefaultTransportConfig returns pool settings suitable for a search cluster
// client.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxConnsPerHost:       100,
		DialTimeout:           5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
}

// NewTransport builds a pooled *http.Transport. Zero fields take the
// defaults.
func NewTransport(cfg TransportConfig) *http.Transport {
	def := DefaultTransportConfig()
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = def.MaxConnsPerHost
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.ResponseHeaderTimeout <= 0 {
		cfg.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
