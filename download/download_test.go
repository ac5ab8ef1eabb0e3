package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_WritesDestination(t *testing.T) {
	body := []byte("file contents")
	destPath := filepath.Join(t.TempDir(), "out.bin")

	err := Handle(context.Background(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger())
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("destination contents mismatch: %q", got)
	}
}

func TestHandle_UnknownContentLength(t *testing.T) {
	body := []byte("length not advertised")
	destPath := filepath.Join(t.TempDir(), "out.bin")

	if err := Handle(context.Background(), bytes.NewReader(body), -1, destPath, discardLogger()); err != nil {
		t.Fatalf("download with unknown length failed: %v", err)
	}
}

func TestHandle_ContentLengthMismatch(t *testing.T) {
	body := []byte("short")
	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "out.bin")

	err := Handle(context.Background(), bytes.NewReader(body), 100, destPath, discardLogger())
	if !errors.Is(err, ErrContentLengthMismatch) {
		t.Fatalf("expected ErrContentLengthMismatch, got %v", err)
	}

	// Temp file must be cleaned up and the destination absent.
	matches, _ := filepath.Glob(filepath.Join(tmpDir, ".curlew-dl-*"))
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("destination should not exist after a failed download")
	}
}

func TestHandle_Checksum(t *testing.T) {
	body := []byte("checksummed payload")
	sum := sha256.Sum256(body)
	destPath := filepath.Join(t.TempDir(), "out.bin")

	err := Handle(context.Background(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger(),
		WithChecksum(sha256.New(), hex.EncodeToString(sum[:])),
	)
	if err != nil {
		t.Fatalf("download with matching checksum failed: %v", err)
	}
}

func TestHandle_ChecksumMismatch(t *testing.T) {
	body := []byte("checksummed payload")
	destPath := filepath.Join(t.TempDir(), "out.bin")

	err := Handle(context.Background(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger(),
		WithChecksum(sha256.New(), "deadbeef"),
	)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("destination should not exist after checksum failure")
	}
}

func TestHandle_SkipExisting(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(destPath, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Handle(context.Background(), bytes.NewReader([]byte("replacement")), 11, destPath, discardLogger(),
		WithSkipExisting(),
	)
	if err != nil {
		t.Fatalf("skip-existing download failed: %v", err)
	}

	got, _ := os.ReadFile(destPath)
	if string(got) != "original" {
		t.Errorf("existing file was overwritten: %q", got)
	}
}

func TestHandle_CancelledContext(t *testing.T) {
	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "out.bin")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Handle(ctx, bytes.NewReader([]byte("never written")), 13, destPath, discardLogger())
	if !errors.Is(err, ErrDownloadCancelled) {
		t.Fatalf("expected ErrDownloadCancelled, got %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(tmpDir, ".curlew-dl-*"))
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
}

func TestHandle_InvalidOption(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "out.bin")

	err := Handle(context.Background(), bytes.NewReader(nil), 0, destPath, discardLogger(),
		WithChecksum(nil, "abc"),
	)
	if err == nil {
		t.Fatal("expected option validation error")
	}
}
