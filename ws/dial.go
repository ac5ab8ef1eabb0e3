package ws

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	utls "github.com/refraction-networking/utls"

	"github.com/curlew-dev/curlew/fingerprint"
)

// Dial establishes a WebSocket connection to rawURL ("ws://" or
// "wss://"). For wss the TLS handshake is shaped by the configured
// fingerprint.
func Dial(ctx context.Context, rawURL string, optFns ...Option) (*Conn, error) {
	opts := defaultOptions()
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	profile, err := fingerprint.Lookup(opts.profile)
	if err != nil {
		return nil, err
	}

	ja3 := profile.JA3
	if opts.ja3 != "" {
		ja3 = opts.ja3
	}

	header := make(http.Header)
	for k, vs := range opts.header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", profile.UserAgent)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: opts.handshakeTimeout,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTCP(ctx, addr, opts.proxyURL, opts.handshakeTimeout)
		},
		NetDialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLS(ctx, addr, ja3, opts)
		},
	}

	wsConn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s: %w (handshake status %s)", rawURL, err, resp.Status)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", rawURL, err)
	}

	conn := newConn(wsConn, opts.pingInterval, opts.logger)
	return conn, nil
}

func dialTCP(ctx context.Context, addr, proxyURL string, timeout time.Duration) (net.Conn, error) {
	if proxyURL != "" {
		return dialViaProxy(proxyURL, addr, timeout)
	}

	var d net.Dialer
	d.Timeout = timeout
	return d.DialContext(ctx, "tcp", addr)
}

func dialTLS(ctx context.Context, addr, ja3 string, opts options) (net.Conn, error) {
	tcpConn, err := dialTCP(ctx, addr, opts.proxyURL, opts.handshakeTimeout)
	if err != nil {
		return nil, err
	}

	spec, err := fingerprint.ParseJA3(ja3)
	if err != nil {
		tcpConn.Close()
		return nil, err
	}
	hello, err := spec.ClientHelloSpec()
	if err != nil {
		tcpConn.Close()
		return nil, err
	}
	forceHTTP1(hello)

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	tlsConn := utls.UClient(tcpConn, &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: opts.insecure,
	}, utls.HelloCustom)

	if err := tlsConn.ApplyPreset(hello); err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("tls apply preset failed: %w", err)
	}

	tcpConn.SetDeadline(time.Now().Add(opts.handshakeTimeout))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("tls handshake failed: %w", err)
	}
	tcpConn.SetDeadline(time.Time{})

	return tlsConn, nil
}

// forceHTTP1 rewrites the ALPN extension so the server cannot select
// h2; the upgrade handshake only works over HTTP/1.1.
func forceHTTP1(hello *utls.ClientHelloSpec) {
	for _, ext := range hello.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
}

// BuildURL converts an http(s) URL to its ws(s) form.
func BuildURL(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	return u.String(), nil
}
