// Package curlew is a browser-impersonating HTTP client built on a
// native curl engine loaded at runtime.
//
// A [Client] owns one async transfer coordinator and a cookie jar;
// requests run concurrently through it and each returns a [Response]:
//
//	c, err := curlew.Build(
//		curlew.WithProfile("chrome-120"),
//		curlew.WithThrottle(10, 5),
//	)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	resp, err := c.Get(ctx, "https://example.com",
//		curlew.WithRequestTimeout(10*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//	fmt.Println(resp.StatusCode, resp.Text())
//
// Redirects are followed by the orchestrator, not the engine, so the
// cookie jar and fingerprint apply to every hop. Bodies are
// transparently decompressed (gzip, deflate, brotli, zstd).
//
// The native library is located via the CURLEW_LIBCURL environment
// variable or well-known install paths; see the curl subpackage.
package curlew
