package curlew

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/curlew-dev/curlew/curl"
	"github.com/curlew-dev/curlew/fingerprint"
)

// hop is the outcome of one transfer leg.
type hop struct {
	code       int
	statusLine string
	header     http.Header
	body       []byte
	finalURL   string
	timing     Timing
}

// doHop runs a single transfer and captures its response. Redirects
// are not followed here; the engine's own following stays disabled so
// the jar and fingerprint apply per hop.
func (c *Client) doHop(ctx context.Context, req *Request, method string, body []byte, u *url.URL) (*hop, error) {
	easy, err := c.buildEasy(req, method, body, u)
	if err != nil {
		return nil, err
	}
	defer easy.Close()

	if err := c.await(ctx, easy); err != nil {
		return nil, err
	}

	lines := easy.ResponseHeaders()
	statusLine, header := parseHeaderLines(lines)

	finalURL := easy.InfoString(curl.InfoEffectiveURL)
	if finalURL == "" {
		finalURL = u.String()
	}

	h := &hop{
		code:       int(easy.InfoLong(curl.InfoResponseCode)),
		statusLine: statusLine,
		header:     header,
		body:       append([]byte(nil), easy.ResponseBody()...),
		finalURL:   finalURL,
		timing: Timing{
			DNS:           secondsToDuration(easy.InfoDouble(curl.InfoNameLookupTime)),
			Connect:       secondsToDuration(easy.InfoDouble(curl.InfoConnectTime)),
			TLS:           secondsToDuration(easy.InfoDouble(curl.InfoAppConnectTime)),
			FirstByte:     secondsToDuration(easy.InfoDouble(curl.InfoStartTransferTime)),
			Total:         secondsToDuration(easy.InfoDouble(curl.InfoTotalTime)),
			DownloadBytes: easy.InfoLong(curl.InfoSizeDownload),
		},
	}

	c.storeCookies(u, header)

	return h, nil
}

// await attaches the handle and blocks until it completes or ctx ends.
// A lost context race detaches the handle; whichever side resolves the
// completion first wins.
func (c *Client) await(ctx context.Context, easy *curl.Easy) error {
	comp, err := c.multi.AddHandle(easy)
	if err != nil {
		return fmt.Errorf("attaching transfer: %w", err)
	}

	select {
	case <-comp.Done():
	case <-ctx.Done():
		c.multi.RemoveHandle(easy)
		<-comp.Done()
	}

	if err := comp.Err(); err != nil {
		if errors.Is(err, curl.ErrCancelled) && ctx.Err() != nil {
			return fmt.Errorf("transfer cancelled: %w", ctx.Err())
		}
		return err
	}
	return nil
}

// buildEasy translates a request hop into a configured native session.
func (c *Client) buildEasy(req *Request, method string, body []byte, u *url.URL) (*curl.Easy, error) {
	easy, err := curl.NewEasy()
	if err != nil {
		return nil, err
	}

	fail := func(err error) (*curl.Easy, error) {
		easy.Close()
		return nil, err
	}

	if err := easy.SetOpt(curl.OptURL, u.String()); err != nil {
		return fail(err)
	}

	switch method {
	case http.MethodGet:
	case http.MethodHead:
		if err := easy.SetOpt(curl.OptNoBody, true); err != nil {
			return fail(err)
		}
	case http.MethodPost:
		if err := easy.SetOpt(curl.OptPost, true); err != nil {
			return fail(err)
		}
	default:
		if err := easy.SetOpt(curl.OptCustomRequest, method); err != nil {
			return fail(err)
		}
	}

	if len(body) > 0 {
		if err := easy.SetOpt(curl.OptPostFields, body); err != nil {
			return fail(err)
		}
		if method != http.MethodPost {
			if err := easy.SetOpt(curl.OptCustomRequest, method); err != nil {
				return fail(err)
			}
		}
	}

	if err := c.applyFingerprint(easy, req); err != nil {
		return fail(err)
	}

	headers := c.buildHeaders(req, u)
	if len(headers) > 0 {
		if err := easy.SetOpt(curl.OptHTTPHeader, headers); err != nil {
			return fail(err)
		}
	}

	timeout := c.timeout
	if req.timeout > 0 {
		timeout = req.timeout
	}
	if timeout > 0 {
		if err := easy.SetOpt(curl.OptTimeoutMS, int(timeout.Milliseconds())); err != nil {
			return fail(err)
		}
	}

	if req.proxy != "" {
		if err := easy.SetOpt(curl.OptProxy, req.proxy); err != nil {
			return fail(err)
		}
	}

	if c.insecure {
		if err := easy.SetOpt(curl.OptSSLVerifyPeer, false); err != nil {
			return fail(err)
		}
		if err := easy.SetOpt(curl.OptSSLVerifyHost, 0); err != nil {
			return fail(err)
		}
	}

	if err := easy.CaptureResponse(); err != nil {
		return fail(err)
	}

	return easy, nil
}

// applyFingerprint configures the hop's TLS and HTTP shape: either the
// native impersonation target of a named profile, or the cipher and
// version surface derivable from a raw JA3 string.
func (c *Client) applyFingerprint(easy *curl.Easy, req *Request) error {
	if req.ja3 != "" {
		spec, err := fingerprint.ParseJA3(req.ja3)
		if err != nil {
			return err
		}
		if ciphers := spec.CipherList(); ciphers != "" {
			if err := easy.SetOpt(curl.OptSSLCipherList, ciphers); err != nil {
				return err
			}
		}
		return easy.SetOpt(curl.OptHTTPVersion, curl.HTTPVersion2TLS)
	}

	name := c.profile
	if req.profile != "" {
		name = req.profile
	}
	profile, err := fingerprint.Lookup(name)
	if err != nil {
		return err
	}

	if err := easy.Impersonate(profile.Target, true); err != nil {
		// Plain libcurl builds lack the impersonation primitive; degrade
		// to the profile's User-Agent so requests still work.
		if errors.Is(err, curl.ErrNotSupported) {
			return easy.SetOpt(curl.OptUserAgent, profile.UserAgent)
		}
		return err
	}
	return nil
}

// buildHeaders assembles the hop's ordered header list: content type,
// caller headers, then cookies.
func (c *Client) buildHeaders(req *Request, u *url.URL) []string {
	var headers []string

	if req.contentType != "" {
		headers = append(headers, "Content-Type: "+req.contentType)
	}
	headers = append(headers, req.headers...)

	if cookie := c.cookieHeader(req, u); cookie != "" {
		headers = append(headers, "Cookie: "+cookie)
	}

	return headers
}

// cookieHeader merges jar cookies for u with the request's own.
func (c *Client) cookieHeader(req *Request, u *url.URL) string {
	var pairs []string

	if c.jar != nil {
		for _, ck := range c.jar.Cookies(u) {
			pairs = append(pairs, ck.Name+"="+ck.Value)
		}
	}
	for _, ck := range req.cookies {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}

	return strings.Join(pairs, "; ")
}

// storeCookies records Set-Cookie response headers in the jar.
func (c *Client) storeCookies(u *url.URL, header http.Header) {
	if c.jar == nil {
		return
	}

	resp := http.Response{Header: header}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		c.jar.SetCookies(u, cookies)
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
