package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "pageloader/1.0 (+https://github.com/nao1215/pageloader)"

// checkProxyTimeout bounds the SOCKS5 probe in CheckConnection.
const checkProxyTimeout = 2 * time.Second

// Client builds HTTP clients for page and resource downloads.
//
// Design decision: Redirects are never followed. A 3xx answer is handed
// back to the caller as-is so it surfaces as a status error instead of
// silently saving a different document under the requested URL's name.
type Client struct {
	// proxyAddress is the SOCKS5 proxy in "host:port" form. Empty means direct.
	proxyAddress string

	// dialer is the SOCKS5 dialer. Nil for direct connections.
	dialer proxy.Dialer

	// timeout is the whole-request timeout of built HTTP clients.
	timeout time.Duration

	// userAgent is injected into every request that lacks one.
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithProxy routes every connection through the SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithTimeout sets the whole-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a Client. When a proxy is configured its address is
// validated, but the proxy is not contacted; call CheckConnection for that.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		timeout:   30 * time.Second,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxyAddress != "" {
		if !isValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		c.dialer = dialer
	}
	return c, nil
}

// isValidProxyAddress reports whether address is host:port with a port in
// 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// ProxyAddress returns the configured proxy address, or "" for direct.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// UserAgent returns the configured User-Agent.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// NewHTTPClient returns an HTTP client that does not follow redirects and
// keeps cookies for the duration of a run.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext:         c.dialContext(),
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New never fails

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      transport,
			userAgent: c.userAgent,
		},
		Timeout: c.timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// HTTPClientWithConfig returns an HTTP client that also sends the given
// cookie and headers on every request. Used for per-site settings.
func (c *Client) HTTPClientWithConfig(cookie string, headers map[string]string) *http.Client {
	client := c.NewHTTPClient()
	if t, ok := client.Transport.(*headerInjectingTransport); ok {
		t.cookie = cookie
		t.headers = headers
	}
	return client
}

// dialContext returns the DialContext func for the transport.
func (c *Client) dialContext() func(ctx context.Context, network, addr string) (net.Conn, error) {
	if c.dialer == nil {
		d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext
	}
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return c.dialer.Dial(network, addr)
	}
}

// SOCKS5 protocol constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
	socks5CmdConnect   = 0x01
	socks5AddrTypeFQDN = 0x03

	// socks5ProbeHost is a reserved name that can never resolve, so the
	// probe CONNECT never reaches a real service.
	socks5ProbeHost = "pageloader-probe.invalid"
)

// CheckConnection verifies that the configured proxy speaks SOCKS5 without
// authentication and answers a CONNECT request. Direct clients always
// report ProxyStatusOK.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	if c.proxyAddress == "" {
		return ProxyStatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if authResp[0] != socks5Version || authResp[1] == socks5AuthNoAccept || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	const probePort = 80
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeFQDN, byte(len(socks5ProbeHost))}
	req = append(req, socks5ProbeHost...)
	req = append(req, byte(probePort>>8), byte(probePort&0xFF))
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	// Any reply code counts: a failure for the unresolvable probe host still
	// proves the proxy processed the request.
	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// headerInjectingTransport adds the User-Agent, an optional cookie and
// optional headers to every outgoing request.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	cookie    string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
