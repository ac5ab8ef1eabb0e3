// Package download streams transfer bodies to disk with optional
// checksum validation and progress reporting.
//
// # Single Download
//
// [Handle] writes the body to a temporary file alongside the
// destination path, then atomically renames it on success:
//
//	err := download.Handle(ctx, body, contentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//
// # Batches
//
// [Queue] runs a group of downloads concurrently with an optional
// concurrency limit. Each [Queue.Start] returns a [Result] future;
// [Result.Err] blocks on one download, [Queue.Wait] on the whole batch.
//
// Most callers should use the root curlew package, which invokes
// Handle internally and re-exports the download options.
package download
