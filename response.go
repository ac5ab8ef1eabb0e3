package curlew

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Response is the outcome of a completed transfer, after any
// redirects.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	Body       []byte

	// FinalURL is the URL of the last hop.
	FinalURL string

	// Redirects lists the intermediate URLs visited, in order.
	Redirects []string

	Timing Timing
}

// Timing carries the engine's phase timings for the final hop.
type Timing struct {
	DNS           time.Duration
	Connect       time.Duration
	TLS           time.Duration
	FirstByte     time.Duration
	Total         time.Duration
	DownloadBytes int64
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// ContentLength reports the advertised Content-Length, or -1 when
// absent or malformed.
func (r *Response) ContentLength() int64 {
	v := r.Header.Get("Content-Length")
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// parseHeaderLines converts the engine's raw header lines into a
// status line and an http.Header. Interim 1xx blocks and the blank
// separators between them are skipped; the last status line wins.
func parseHeaderLines(lines []string) (status string, header http.Header) {
	header = make(http.Header)

	for _, line := range lines {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "HTTP/") {
			status = line
			header = make(http.Header)
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	return status, header
}

// splitStatusLine extracts the proto and reason from a raw status line
// such as "HTTP/1.1 200 OK".
func splitStatusLine(line string) (proto, status string) {
	proto, rest, ok := strings.Cut(line, " ")
	if !ok {
		return line, ""
	}
	return proto, rest
}
