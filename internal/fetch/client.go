package fetch

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects is the number of redirects followed before the last
// response is returned as is.
const maxRedirects = 10

// ClientOptions configures NewHTTPClient.
type ClientOptions struct {
	// Timeout bounds one attempt, including reading the body.
	Timeout time.Duration

	// HTTPProxy is an http:// or https:// proxy URL used for every request.
	HTTPProxy string

	// SOCKS5Proxy is a socks5:// proxy URL. When both proxies are set,
	// connections are dialed through SOCKS5 and the HTTP proxy is ignored.
	SOCKS5Proxy string
}

// NewHTTPClient creates the HTTP client used for fingerprinting.
// TLS certificate verification is disabled; see the package documentation.
func NewHTTPClient(opts ClientOptions) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: opts.Timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // targets commonly use self-signed certificates
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	switch {
	case opts.SOCKS5Proxy != "":
		dialer, err := socks5Dialer(opts.SOCKS5Proxy)
		if err != nil {
			return nil, err
		}
		transport.DialContext = dialer.DialContext
	case opts.HTTPProxy != "":
		proxyURL, err := parseProxyURL(opts.HTTPProxy, "http", "https")
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// socks5Dialer builds a context-aware dialer for a socks5:// URL.
func socks5Dialer(raw string) (proxy.ContextDialer, error) {
	u, err := parseProxyURL(raw, "socks5", "socks5h")
	if err != nil {
		return nil, err
	}

	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("%w: SOCKS5 dialer does not support contexts", ErrInvalidProxy)
	}
	return cd, nil
}

// ValidateProxy reports whether raw is a usable proxy URL for one of the
// given schemes.
func ValidateProxy(raw string, schemes ...string) error {
	_, err := parseProxyURL(raw, schemes...)
	return err
}

func parseProxyURL(raw string, schemes ...string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidProxy, u.Redacted())
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
}
