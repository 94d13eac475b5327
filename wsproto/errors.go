package wsproto

import "errors"

var (
	// ErrInvalidMaxFrameLen names an invalid max frame length. No function
	// in this package returns it: EncodeMessage treats a zero or negative
	// MaxFrameLen as a request for the default.
	ErrInvalidMaxFrameLen = errors.New("wdc: invalid max frame length")

	// ErrInvalidDataLen is returned when a frame's payload length exceeds
	// the cap of its declared size class.
	ErrInvalidDataLen = errors.New("wdc: payload length exceeds size class cap")

	// ErrInsufficientSize names a size class too small for a payload. No
	// function in this package returns it: EncodeFrame reports that case
	// as ErrInvalidDataLen.
	ErrInsufficientSize = errors.New("wdc: size class insufficient for payload")

	// ErrSizeKindNotFound is returned when no allowed size class fits a
	// frame's length.
	ErrSizeKindNotFound = errors.New("wdc: no allowed size class fits payload length")

	// ErrHandshakeFail1 is returned when the handshake response status is
	// not 101 Switching Protocols.
	ErrHandshakeFail1 = errors.New("wdc: handshake failed: unexpected status")

	// ErrHandshakeFail2 is returned when the handshake response status is
	// 101 but Sec-WebSocket-Accept does not match the fixed expected value.
	ErrHandshakeFail2 = errors.New("wdc: handshake failed: accept mismatch")
)
