package curlew

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/curlew-dev/curlew/curl"
	"github.com/curlew-dev/curlew/download"
)

// Download streams the response body for req to destPath. Data goes to
// a temp file in the destination directory, renamed on success and
// removed on failure. A response status other than expCode aborts the
// transfer before the body reaches disk.
func (c *Client) Download(ctx context.Context, req *Request, expCode int, destPath string, opts ...download.Option) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}
	if err := Validate(req); err != nil {
		return err
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}

	easy, err := c.buildEasy(req, req.Method, req.body, u)
	if err != nil {
		return err
	}
	defer easy.Close()

	pr, pw := io.Pipe()

	// The capture callbacks installed by buildEasy are replaced with a
	// streaming pair: headers gate on the expected status, body bytes
	// flow straight into the pipe.
	var contentLength atomic.Int64
	contentLength.Store(-1)
	var statusRejected atomic.Bool
	var gotStatus atomic.Int64

	// Closed after the final (non-redirect) header block so the disk
	// writer starts with the real Content-Length, not a placeholder.
	headersDone := make(chan struct{})
	var headersOnce sync.Once

	if err := easy.SetOpt(curl.OptHeaderFunction, curl.HeaderFunc(func(line []byte) int {
		text := strings.TrimRight(string(line), "\r\n")
		switch {
		case strings.HasPrefix(text, "HTTP/"):
			_, rest := splitStatusLine(text)
			codeStr, _, _ := strings.Cut(rest, " ")
			if code, err := strconv.Atoi(codeStr); err == nil {
				gotStatus.Store(int64(code))
				statusRejected.Store(code != expCode && !isRedirect(code))
			}
		case text == "":
			if code := int(gotStatus.Load()); code != 0 && !isRedirect(code) {
				headersOnce.Do(func() { close(headersDone) })
			} else {
				// A redirect block ends; the next hop restates the length.
				contentLength.Store(-1)
			}
		case strings.HasPrefix(strings.ToLower(text), "content-length:"):
			_, v, _ := strings.Cut(text, ":")
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				contentLength.Store(n)
			}
		}
		return len(line)
	})); err != nil {
		return err
	}

	if err := easy.SetOpt(curl.OptWriteFunction, curl.WriteFunc(func(data []byte) int {
		if statusRejected.Load() {
			return 0 // aborts the transfer
		}
		n, err := pw.Write(data)
		if err != nil {
			return 0
		}
		return n
	})); err != nil {
		return err
	}

	// Downloads let the engine follow redirects itself; per-hop cookie
	// handling is not worth re-running the transfer for a moved file.
	if err := easy.SetOpt(curl.OptFollowLocation, true); err != nil {
		return err
	}
	if err := easy.SetOpt(curl.OptMaxRedirs, c.maxRedirects); err != nil {
		return err
	}

	transferDone := make(chan error, 1)
	go func() {
		err := downloadOutcome(c.await(ctx, easy), statusRejected.Load(), int(gotStatus.Load()))
		pw.CloseWithError(err)
		transferDone <- err
	}()

	// Body bytes only flow once the final header block is in, so the
	// wait cannot outlive the transfer itself.
	var handleErr error
	select {
	case <-headersDone:
		handleErr = download.Handle(ctx, pr, contentLength.Load(), destPath, c.logger, opts...)
	case handleErr = <-transferDone:
		transferDone <- handleErr
		pr.Close()
	}
	transferErr := <-transferDone

	// The write side's error surfaces through the pipe into Handle;
	// prefer the typed transfer error when both report.
	if transferErr != nil {
		var statusErr *UnexpectedStatusError
		if errors.As(transferErr, &statusErr) {
			return statusErr
		}
		return fmt.Errorf("download transfer: %w", transferErr)
	}
	if handleErr != nil {
		return fmt.Errorf("download: %w", handleErr)
	}
	return nil
}

// downloadOutcome maps a finished transfer to its reported error. A
// rejected status wins over the transfer error: the abort it provokes
// in the write callback (a native write-error code) is a consequence of
// the rejection, not a distinct failure.
func downloadOutcome(transferErr error, rejected bool, status int) error {
	if rejected {
		return &UnexpectedStatusError{
			StatusCode: status,
			Err:        ErrUnexpectedStatusCode,
		}
	}
	return transferErr
}

// DownloadAsync starts the download in the background and returns a
// [download.Result] future. Use download.WithQueue to batch several
// downloads under one concurrency limit; [download.Result.Add] chains
// more onto the same batch.
func (c *Client) DownloadAsync(ctx context.Context, req *Request, expCode int, destPath string, opts ...download.Option) (*download.Result, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if destPath == "" {
		return nil, errors.New("destPath must not be empty")
	}

	queue, err := download.QueueOf(opts...)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		queue = download.NewQueue(0)
	}

	adder := func(rawURL, destPath string, optFns ...download.Option) (*download.Result, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parsing url: %w", err)
		}
		next, err := NewRequest(http.MethodGet, u)
		if err != nil {
			return nil, err
		}
		return c.DownloadAsync(ctx, next, expCode, destPath, optFns...)
	}

	result := queue.Start(ctx, func(ctx context.Context) error {
		return c.Download(ctx, req, expCode, destPath, opts...)
	}, adder)

	return result, nil
}
