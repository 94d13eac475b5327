package wsproto

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

// TestBuildHandshakeRequestUsesFixedKey checks the built request always
// carries the fixed key rather than a per-call random nonce.
func TestBuildHandshakeRequestUsesFixedKey(t *testing.T) {
	req := BuildHandshakeRequest("127.0.0.1:4444", "/session/abcd")
	raw := string(req.Bytes())
	if !strings.Contains(raw, "Sec-WebSocket-Key: "+FixedHandshakeKey) {
		t.Fatalf("request missing fixed handshake key:\n%s", raw)
	}
	if !strings.Contains(raw, "GET /session/abcd HTTP/1.1") {
		t.Fatalf("unexpected request line:\n%s", raw)
	}
}

// TestVerifyHandshakeResponseAccepts checks a 101 response carrying the
// exact expected accept value succeeds.
func TestVerifyHandshakeResponseAccepts(t *testing.T) {
	raw := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + ExpectedAccept + "\r\n\r\n"
	err := VerifyHandshakeResponse(bufio.NewReader(bytes.NewBufferString(raw)))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

// TestVerifyHandshakeResponseRejectsWrongStatus checks a non-101 status
// fails with ErrHandshakeFail1.
func TestVerifyHandshakeResponseRejectsWrongStatus(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	err := VerifyHandshakeResponse(bufio.NewReader(bytes.NewBufferString(raw)))
	if err != ErrHandshakeFail1 {
		t.Fatalf("got %v want ErrHandshakeFail1", err)
	}
}

// TestVerifyHandshakeResponseRejectsWrongAccept checks a 101 response with
// a mismatched Sec-WebSocket-Accept fails with ErrHandshakeFail2.
func TestVerifyHandshakeResponseRejectsWrongAccept(t *testing.T) {
	raw := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: not-the-right-value=\r\n\r\n"
	err := VerifyHandshakeResponse(bufio.NewReader(bytes.NewBufferString(raw)))
	if err != ErrHandshakeFail2 {
		t.Fatalf("got %v want ErrHandshakeFail2", err)
	}
}
