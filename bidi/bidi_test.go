package bidi

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/imichael2e2/wdc/capability"
	"github.com/imichael2e2/wdc/httpcodec"
	"github.com/imichael2e2/wdc/wsproto"
)

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// fakeBidiServer runs both sides of a BiDi init: the classic HTTP
// listener answers /status and POST /session, then a second listener
// performs the WebSocket handshake and replies to each text frame it
// receives with one scripted response payload.
func fakeBidiServer(t *testing.T, wsHost string, wsPort uint16, frameResponses []string) (httpHost string, httpPort uint16) {
	t.Helper()

	wsLn, err := net.Listen("tcp", wsHost+":"+itoa(int(wsPort)))
	if err != nil {
		t.Fatalf("listen ws: %v", err)
	}
	actualWSAddr := wsLn.Addr().String()

	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen http: %v", err)
	}

	sessionBody := `{"value":{"sessionId":"bidi1","capabilities":{"browserName":"firefox","webSocketUrl":"ws://` + actualWSAddr + `/session/bidi1"}}}`

	go func() {
		conn, err := httpLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer httpLn.Close()

		r := bufio.NewReader(conn)

		if _, err := httpcodec.ParseRequestFromStream(r); err != nil {
			return
		}
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 24\r\n\r\n{\"value\":{\"ready\":true}}"))

		if _, err := httpcodec.ParseRequestFromStream(r); err != nil {
			return
		}
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: " + itoa(len(sessionBody)) + "\r\n\r\n" + sessionBody))
	}()

	go func() {
		conn, err := wsLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer wsLn.Close()

		r := bufio.NewReader(conn)
		if _, err := httpcodec.ParseRequestFromStream(r); err != nil {
			return
		}
		handshakeResp := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: " + wsproto.ExpectedAccept + "\r\n\r\n"
		conn.Write([]byte(handshakeResp))

		for _, respData := range frameResponses {
			if _, err := wsproto.DecodeMessage(r); err != nil {
				return
			}
			msg, err := wsproto.EncodeMessage([]byte(respData), wsproto.MessageSettings{Allowed: wsproto.AllAllowed})
			if err != nil {
				return
			}
			raw, err := wsproto.EncodeMessageBytes(msg)
			if err != nil {
				return
			}
			conn.Write(raw)
		}
	}()

	host, portStr, err := net.SplitHostPort(httpLn.Addr().String())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	var port int
	for _, c := range portStr {
		port = port*10 + int(c-'0')
	}
	return host, uint16(port)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// TestInitEstablishesBothStreams exercises the full bidi.Init sequence:
// classic status probe, session creation with webSocketUrl:true, BiDi
// URL extraction, and the second-stream WebSocket handshake.
func TestInitEstablishesBothStreams(t *testing.T) {
	host, port := fakeBidiServer(t, "127.0.0.1", 0, nil)

	c, err := Init(host, port, capability.VendorFirefox, 2*time.Second, testLogger())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.SessionID() != "bidi1" {
		t.Errorf("sessionId: got %q", c.SessionID())
	}
	if c.wsConn == nil {
		t.Errorf("expected ws stream established")
	}
}

// TestSetTimeoutsAppliesDeadlines checks SetTimeouts overrides the
// defaults and a subsequent command still succeeds within the new
// deadline.
func TestSetTimeoutsAppliesDeadlines(t *testing.T) {
	createResp := `{"id":1,"result":{"context":"67BAB34FF3FD05FF8366DAD6A34E181D"}}`
	host, port := fakeBidiServer(t, "127.0.0.1", 0, []string{createResp})

	c, err := Init(host, port, capability.VendorFirefox, 2*time.Second, testLogger())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	c.SetTimeouts(time.Second, time.Second)

	if err := c.GenCtx(ContextTab); err != nil {
		t.Fatalf("GenCtx after SetTimeouts: %v", err)
	}
}

// TestGenCtxNaviCtxTree exercises the three BiDi commands against
// scripted frame responses shaped like the spec's literal examples.
func TestGenCtxNaviCtxTree(t *testing.T) {
	createResp := `{"id":1,"result":{"context":"67BAB34FF3FD05FF8366DAD6A34E181D"}}`
	naviResp := `{"id":2,"result":{"navigation":"nav-1","url":"about:rights"}}`
	treeResp := `{"id":3,"result":{"contexts":[]}}`

	host, port := fakeBidiServer(t, "127.0.0.1", 0, []string{createResp, naviResp, treeResp})

	c, err := Init(host, port, capability.VendorFirefox, 2*time.Second, testLogger())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := c.GenCtx(ContextTab); err != nil {
		t.Fatalf("GenCtx: %v", err)
	}
	ctxs := c.CtxList()
	if len(ctxs) != 1 || ctxs[0] != "67BAB34FF3FD05FF8366DAD6A34E181D" {
		t.Fatalf("ctxList: got %#v", ctxs)
	}

	if err := c.Navi(ctxs[0], "about:rights"); err != nil {
		t.Fatalf("Navi: %v", err)
	}

	if err := c.CtxTree(); err != nil {
		t.Fatalf("CtxTree: %v", err)
	}
}
