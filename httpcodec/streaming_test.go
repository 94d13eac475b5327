package httpcodec

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
)

// TestBodyStreamingTrim verifies that streaming a response body to disk
// writes exactly content_length-insig_head-insig_tail bytes, and that those
// bytes equal the original payload slice [insig_head, content_length-insig_tail).
// This must hold even when insig_head exceeds a single scratch-buffer read.
func TestBodyStreamingTrim(t *testing.T) {
	cases := []struct {
		name          string
		contentLength int
		insigHead     int
		insigTail     int
	}{
		{"small-37-no-trim", 37, 0, 0},
		{"small-with-trim", 37, 10, 2},
		{"one-meg-plus-one-kib", 1024 + 1024*1024, 10, 0},
		{"insig-head-exceeds-one-read", streamScratchBufSize * 3, streamScratchBufSize + 50, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := make([]byte, tc.contentLength)
			if _, err := rand.Read(payload); err != nil {
				t.Fatalf("rand: %v", err)
			}

			raw := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n", tc.contentLength)
			var buf bytes.Buffer
			buf.WriteString(raw)
			buf.Write(payload)

			dir := t.TempDir()
			path := dir + "/body.bin"

			r := bufio.NewReader(&buf)
			resp, err := ParseResponseFromStream(r, path, tc.insigHead, tc.insigTail)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if resp.PersistPath != path {
				t.Fatalf("persist path: got %q want %q", resp.PersistPath, path)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read persisted file: %v", err)
			}

			wantLen := tc.contentLength - tc.insigHead - tc.insigTail
			if len(got) != wantLen {
				t.Fatalf("persisted length: got %d want %d", len(got), wantLen)
			}

			want := payload[tc.insigHead : tc.contentLength-tc.insigTail]
			if !bytes.Equal(got, want) {
				t.Fatalf("persisted bytes mismatch")
			}
		})
	}
}

// TestHeaderNotExist confirms lookups against fixed headers that aren't
// present return ErrHeaderNotExist.
func TestHeaderNotExist(t *testing.T) {
	headers := []byte("Host: 127.0.0.1\r\n")
	if _, err := HeaderLookup(headers, HeaderContentLength); err == nil {
		t.Fatalf("expected ErrHeaderNotExist, got nil")
	}
}

// TestBodyStreaming50MiB is the scenario named in the spec: a 50 MiB
// response streamed with insig_head=10, insig_tail=0 produces a
// 50 MiB-10-byte file identical to the payload with its first ten bytes
// removed. Skipped under -short since it allocates 50 MiB.
func TestBodyStreaming50MiB(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates 50 MiB; skipped under -short")
	}

	const contentLength = 50 * 1024 * 1024
	payload := make([]byte, contentLength)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("rand: %v", err)
	}

	raw := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n", contentLength)
	var buf bytes.Buffer
	buf.WriteString(raw)
	buf.Write(payload)

	path := t.TempDir() + "/screenshot.bin"
	r := bufio.NewReader(&buf)
	if _, err := ParseResponseFromStream(r, path, 10, 0); err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != contentLength-10 {
		t.Fatalf("length: got %d want %d", len(got), contentLength-10)
	}
	if !bytes.Equal(got, payload[10:]) {
		t.Fatalf("content mismatch")
	}
}
