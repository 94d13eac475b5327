package driverclient

import (
	"encoding/json"
	"strings"
)

// KeyCode is a special (non-printable) key value, encoded at serialization
// time as a \uXXXX escape rather than its literal UTF-8 bytes.
type KeyCode string

const (
	KeyBackspace    KeyCode = ""
	KeyTab          KeyCode = ""
	KeyEnter        KeyCode = ""
	KeyLeftShift    KeyCode = ""
	KeyLeftControl  KeyCode = ""
	KeyLeftAlt      KeyCode = ""
	KeyRightShift   KeyCode = ""
	KeyRightControl KeyCode = ""
	KeyRightAlt     KeyCode = ""
)

// unicodePlaceholder stands in for a PUA codepoint's escape sequence
// during json.Marshal: encoding/json renders such runes as their literal
// three-byte UTF-8 encoding, but the driver expects a \uXXXX escape, so
// special keys are carried as this placeholder token and patched into the
// real escape after marshaling.
const unicodePlaceholder = "\x00U\x00"

// KeySubAction is one key press/release/pause within a key action.
type KeySubAction struct {
	Type  string // "keyDown", "keyUp", "pause"
	Value string // a printable rune, or one of the KeyCode constants
}

// PointerSubAction is one pointer event within a pointer action.
type PointerSubAction struct {
	Type               string // "pointerDown", "pointerUp", "pointerMove", "pointerCancel", "pause"
	Button             uint8
	Width              *uint32
	Height             *uint32
	Pressure           *float32
	TangentialPressure *float32
	Twist              *uint32
	TiltX              *int32
	TiltY              *int32
	AltitudeAngle      *float32
	AzimuthAngle       *float32
	Duration           *uint32
	Origin             string
	X                  *int32
	Y                  *int32
}

// WheelSubAction is one wheel event within a wheel action.
type WheelSubAction struct {
	Type     string // "scroll", "pause"
	Duration *uint32
	Origin   string // "viewport" or "pointer"
	X, Y     int32
	DeltaX   int32
	DeltaY   int32
}

// ActionSource is one named input device (key, pointer, or wheel) and the
// ordered ticks it performs.
type ActionSource struct {
	ID      string
	Kind    string // "key", "pointer", "wheel"
	Key     []KeySubAction
	Pointer []PointerSubAction
	Wheel   []WheelSubAction
}

// ActionGroup is the full set of input sources sent to /actions.
type ActionGroup struct {
	Sources []ActionSource
}

// AddKeySource appends a key input source.
func (g *ActionGroup) AddKeySource(id string, acts ...KeySubAction) {
	g.Sources = append(g.Sources, ActionSource{ID: id, Kind: "key", Key: acts})
}

// AddPointerSource appends a pointer input source.
func (g *ActionGroup) AddPointerSource(id string, acts ...PointerSubAction) {
	g.Sources = append(g.Sources, ActionSource{ID: id, Kind: "pointer", Pointer: acts})
}

// AddWheelSource appends a wheel input source.
func (g *ActionGroup) AddWheelSource(id string, acts ...WheelSubAction) {
	g.Sources = append(g.Sources, ActionSource{ID: id, Kind: "wheel", Wheel: acts})
}

func keyValueJSON(v string) string {
	if v == "" {
		return `""`
	}
	r := []rune(v)
	if len(r) == 1 && r[0] >= 0xE000 {
		return `"` + unicodePlaceholder + fmtCodepoint(r[0]) + `"`
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func fmtCodepoint(r rune) string {
	const hex = "0123456789ABCDEF"
	buf := [4]byte{}
	v := int(r)
	for i := 3; i >= 0; i-- {
		buf[i] = hex[v&0xF]
		v >>= 4
	}
	return string(buf[:])
}

func marshalKeySub(s KeySubAction) string {
	var b strings.Builder
	b.WriteString(`{"type":`)
	kb, _ := json.Marshal(s.Type)
	b.Write(kb)
	b.WriteString(`,"value":`)
	b.WriteString(keyValueJSON(s.Value))
	b.WriteString(`}`)
	return b.String()
}

func marshalPointerSub(s PointerSubAction) string {
	m := map[string]interface{}{"type": s.Type}
	if s.Type == "pointerDown" || s.Type == "pointerUp" {
		m["button"] = s.Button
	}
	if s.Width != nil {
		m["width"] = *s.Width
	}
	if s.Height != nil {
		m["height"] = *s.Height
	}
	if s.Pressure != nil {
		m["pressure"] = *s.Pressure
	}
	if s.TangentialPressure != nil {
		m["tangentialPressure"] = *s.TangentialPressure
	}
	if s.Twist != nil {
		m["twist"] = *s.Twist
	}
	if s.TiltX != nil {
		m["tiltX"] = *s.TiltX
	}
	if s.TiltY != nil {
		m["tiltY"] = *s.TiltY
	}
	if s.AltitudeAngle != nil {
		m["altitudeAngle"] = *s.AltitudeAngle
	}
	if s.AzimuthAngle != nil {
		m["azimuthAngle"] = *s.AzimuthAngle
	}
	if s.Duration != nil {
		m["duration"] = *s.Duration
	}
	if s.Origin != "" {
		m["origin"] = s.Origin
	}
	if s.X != nil {
		m["x"] = *s.X
	}
	if s.Y != nil {
		m["y"] = *s.Y
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func marshalWheelSub(s WheelSubAction) string {
	m := map[string]interface{}{"type": s.Type}
	if s.Duration != nil {
		m["duration"] = *s.Duration
	}
	if s.Origin != "" {
		m["origin"] = s.Origin
	}
	if s.Type == "scroll" {
		m["x"] = s.X
		m["y"] = s.Y
		m["deltaX"] = s.DeltaX
		m["deltaY"] = s.DeltaY
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// MarshalJSON renders the action group, then patches the unicode
// placeholder tokens into raw \uXXXX escapes so special keys reach the
// driver as actual codepoints rather than literal three-byte UTF-8.
func (g *ActionGroup) MarshalJSON() ([]byte, error) {
	var sources []string
	for _, src := range g.Sources {
		var b strings.Builder
		b.WriteString(`{"type":`)
		tb, _ := json.Marshal(src.Kind)
		b.Write(tb)
		b.WriteString(`,"id":`)
		idb, _ := json.Marshal(src.ID)
		b.Write(idb)
		b.WriteString(`,"actions":[`)
		switch src.Kind {
		case "key":
			for i, a := range src.Key {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(marshalKeySub(a))
			}
		case "pointer":
			for i, a := range src.Pointer {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(marshalPointerSub(a))
			}
		case "wheel":
			for i, a := range src.Wheel {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(marshalWheelSub(a))
			}
		}
		b.WriteString(`]}`)
		sources = append(sources, b.String())
	}

	raw := `{"actions":[` + strings.Join(sources, ",") + `]}`
	raw = strings.ReplaceAll(raw, unicodePlaceholder, `\u`)
	return []byte(raw), nil
}
