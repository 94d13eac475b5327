package wsproto

import (
	"bufio"
	"bytes"
	"testing"
)

// TestEncodeMessageFragmentationLaw checks: exactly one FIN frame (the
// last), the first frame carries the message opcode, every later frame
// carries Continuation.
func TestEncodeMessageFragmentationLaw(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}

	msg, err := EncodeMessage(payload, MessageSettings{
		Binary:      true,
		MaxFrameLen: 100,
		Allowed:     AllAllowed,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msg.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(msg.Frames))
	}

	for i, f := range msg.Frames {
		wantFin := i == len(msg.Frames)-1
		if f.Fin != wantFin {
			t.Errorf("frame %d: Fin got %v want %v", i, f.Fin, wantFin)
		}
		wantOp := OpcodeContinuation
		if i == 0 {
			wantOp = OpcodeBinary
		}
		if f.Opcode != wantOp {
			t.Errorf("frame %d: opcode got %x want %x", i, f.Opcode, wantOp)
		}
	}

	if !bytes.Equal(msg.Data(), payload) {
		t.Fatalf("reassembled data mismatch")
	}
}

// TestEncodeMessageSingleFrame checks a payload within MaxFrameLen
// produces exactly one frame carrying both Fin and the opcode.
func TestEncodeMessageSingleFrame(t *testing.T) {
	payload := []byte("hello world")
	msg, err := EncodeMessage(payload, MessageSettings{Allowed: AllAllowed})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msg.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(msg.Frames))
	}
	f := msg.Frames[0]
	if !f.Fin || f.Opcode != OpcodeText {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

// TestEncodeMessagePingOpcode checks Ping folds the opcode to 0x9 on the
// (sole) frame regardless of Binary.
func TestEncodeMessagePingOpcode(t *testing.T) {
	msg, err := EncodeMessage(nil, MessageSettings{Binary: true, Ping: true, Allowed: AllAllowed})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msg.Frames) != 1 || msg.Frames[0].Opcode != OpcodePing {
		t.Fatalf("expected single ping frame, got %+v", msg.Frames)
	}
}

// TestMessageEncodeDecodeRoundTrip pushes an encoded, masked, fragmented
// message through the wire and decodes it back.
func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 50) // 500 bytes
	msg, err := EncodeMessage(payload, MessageSettings{
		Mask:        true,
		MaxFrameLen: 64,
		Allowed:     AllAllowed,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	wire, err := EncodeMessageBytes(msg)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := DecodeMessage(bufio.NewReader(bytes.NewReader(wire)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.Data(), payload) {
		t.Fatalf("round trip mismatch")
	}
	if len(got.Frames) != len(msg.Frames) {
		t.Fatalf("frame count: got %d want %d", len(got.Frames), len(msg.Frames))
	}
}
