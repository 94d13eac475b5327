package wsproto

import (
	"bufio"

	"github.com/imichael2e2/wdc/httpcodec"
)

// FixedHandshakeKey is the Sec-WebSocket-Key value this client always
// sends. A compliant client is supposed to generate a fresh random nonce
// per handshake; this one does not, so the expected Sec-WebSocket-Accept
// is likewise a fixed constant rather than computed per connection.
const FixedHandshakeKey = "aG93LXRvLWhhbmRzaGFrZQ=="

// ExpectedAccept is the Sec-WebSocket-Accept value a server must echo back
// for FixedHandshakeKey (RFC6455 4.2.2: base64(SHA1(key + GUID))).
const ExpectedAccept = "GsCYk86TcY3D9uBDLZuG5FmeV3Y="

// BuildHandshakeRequest builds the client upgrade request for path on
// host, using the fixed handshake key.
func BuildHandshakeRequest(host, path string) *httpcodec.Request {
	return httpcodec.NewRequest(httpcodec.MethodGet, path).
		Host(host).
		Connection("Upgrade").
		Upgrade("websocket").
		SecWebSocketKey(FixedHandshakeKey).
		SecWebSocketVersion("13")
}

// VerifyHandshakeResponse reads and validates the server's upgrade
// response off r, succeeding only when the status is 101 and
// Sec-WebSocket-Accept equals ExpectedAccept.
func VerifyHandshakeResponse(r *bufio.Reader) error {
	resp, err := httpcodec.ParseResponseFromStream(r, "", 0, 0)
	if err != nil {
		return err
	}

	if len(resp.Status) < 3 || resp.Status[:3] != "101" {
		return ErrHandshakeFail1
	}

	accept, err := httpcodec.HeaderLookup(resp.Headers, httpcodec.HeaderSecWebSocketAccept)
	if err != nil {
		return ErrHandshakeFail2
	}
	if string(accept) != ExpectedAccept {
		return ErrHandshakeFail2
	}

	return nil
}
