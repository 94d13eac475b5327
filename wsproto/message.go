package wsproto

import (
	"bufio"
	"crypto/rand"
)

// MessageSettings controls how EncodeMessage splits and marks a payload.
type MessageSettings struct {
	Binary      bool // opcode is binary rather than text; ignored if Ping or Pong set
	Ping        bool // opcode is ping, overrides Binary
	Pong        bool // opcode is pong, overrides Binary and Ping
	Mask        bool
	MaxFrameLen int // 0 selects the cap of the smallest allowed size class (65535 when only L is allowed)
	Allowed     AllowedSizes
}

// Message is an ordered sequence of frames belonging to one logical
// WebSocket message.
type Message struct {
	Frames []*Frame
}

// Data concatenates the payloads of every frame in message order,
// reconstructing the original application data.
func (m *Message) Data() []byte {
	total := 0
	for _, f := range m.Frames {
		total += len(f.Payload)
	}
	out := make([]byte, 0, total)
	for _, f := range m.Frames {
		out = append(out, f.Payload...)
	}
	return out
}

func baseOpcode(s MessageSettings) byte {
	switch {
	case s.Pong:
		return OpcodePong
	case s.Ping:
		return OpcodePing
	case s.Binary:
		return OpcodeBinary
	default:
		return OpcodeText
	}
}

func defaultMaxFrameLen(allowed AllowedSizes) int {
	switch {
	case allowed.S:
		return CapS
	case allowed.M:
		return CapM
	default:
		return CapM // first fragment boundary; L frames still chosen per-frame as needed
	}
}

// EncodeMessage splits payload into one or more frames per settings: the
// first frame carries the message's opcode, every later frame carries
// Continuation, and only the last frame sets Fin. Each frame independently
// picks the smallest allowed size class that fits its own length.
func EncodeMessage(payload []byte, settings MessageSettings) (*Message, error) {
	maxLen := settings.MaxFrameLen
	if maxLen <= 0 {
		maxLen = defaultMaxFrameLen(settings.Allowed)
	}

	msg := &Message{}
	opcode := baseOpcode(settings)

	offset := 0
	first := true
	for {
		end := offset + maxLen
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]
		last := end == len(payload)

		op := OpcodeContinuation
		if first {
			op = opcode
		}

		sizeKind, err := ChooseSizeKind(len(chunk), settings.Allowed)
		if err != nil {
			return nil, err
		}

		f := &Frame{
			Fin:      last,
			Opcode:   op,
			SizeKind: sizeKind,
			Masked:   settings.Mask,
			Payload:  append([]byte(nil), chunk...),
		}
		if settings.Mask {
			if err := randomMaskKey(&f.MaskKey); err != nil {
				return nil, err
			}
		}

		msg.Frames = append(msg.Frames, f)
		offset = end
		first = false

		if last {
			break
		}
	}

	// A zero-length payload still produces exactly one frame.
	if len(msg.Frames) == 0 {
		sizeKind, err := ChooseSizeKind(0, settings.Allowed)
		if err != nil {
			return nil, err
		}
		f := &Frame{Fin: true, Opcode: opcode, SizeKind: sizeKind, Masked: settings.Mask}
		if settings.Mask {
			if err := randomMaskKey(&f.MaskKey); err != nil {
				return nil, err
			}
		}
		msg.Frames = append(msg.Frames, f)
	}

	return msg, nil
}

// EncodeMessageBytes serializes every frame of msg in order, producing the
// exact bytes to write to the wire.
func EncodeMessageBytes(msg *Message) ([]byte, error) {
	var out []byte
	for _, f := range msg.Frames {
		b, err := EncodeFrame(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// DecodeMessage reads frames from r until one with Fin set is read,
// returning the assembled message.
func DecodeMessage(r *bufio.Reader) (*Message, error) {
	msg := &Message{}
	for {
		f, err := DecodeFrame(r)
		if err != nil {
			return nil, err
		}
		msg.Frames = append(msg.Frames, f)
		if f.Fin {
			break
		}
	}
	return msg, nil
}

func randomMaskKey(key *[4]byte) error {
	_, err := rand.Read(key[:])
	return err
}
