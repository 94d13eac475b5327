package capability

import (
	"encoding/json"
	"regexp"

	"github.com/imichael2e2/wdc/wderr"
)

// SessionResult is the decoded body of a successful NewSession response.
type SessionResult struct {
	SessionID    string
	Capabilities *Capabilities
	WebSocketURL string
}

type sessionResultWire struct {
	Value struct {
		SessionID    string          `json:"sessionId"`
		Capabilities json.RawMessage `json:"capabilities"`
	} `json:"value"`
}

// DecodeSessionResult parses a NewSession response body for the given
// vendor, so the moz:firefoxOptions/goog:chromeOptions compartment is
// decoded into the right extension type.
func DecodeSessionResult(body []byte, vendor Vendor) (*SessionResult, error) {
	var wire sessionResultWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}

	capa, err := decodeCapabilities(wire.Value.Capabilities, vendor)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		SessionID:    wire.Value.SessionID,
		Capabilities: capa,
		WebSocketURL: capa.WebSocketURL,
	}, nil
}

var knownCapaKeys = map[string]bool{
	"browserName": true, "browserVersion": true, "platformName": true,
	"acceptInsecureCerts": true, "pageLoadStrategy": true, "proxy": true,
	"setWindowRect": true, "timeouts": true, "strictFileInteractability": true,
	"unhandledPromptBehavior": true, "webSocketUrl": true,
	"moz:firefoxOptions": true, "goog:chromeOptions": true,
}

func decodeCapabilities(raw json.RawMessage, vendor Vendor) (*Capabilities, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	c := &Capabilities{Vendor: vendor, Alien: map[string]json.RawMessage{}}

	if v, ok := m["browserName"]; ok {
		json.Unmarshal(v, &c.BrowserName)
	}
	if v, ok := m["browserVersion"]; ok {
		json.Unmarshal(v, &c.BrowserVersion)
	}
	if v, ok := m["platformName"]; ok {
		json.Unmarshal(v, &c.PlatformName)
	}
	if v, ok := m["acceptInsecureCerts"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			c.AcceptInsecureCerts = &b
		}
	}
	if v, ok := m["pageLoadStrategy"]; ok {
		json.Unmarshal(v, &c.PageLoadStrategy)
	}
	if v, ok := m["proxy"]; ok {
		var p Proxy
		if err := json.Unmarshal(v, &p); err == nil {
			c.Proxy = &p
		}
	}
	if v, ok := m["setWindowRect"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			c.WindowRect = &b
		}
	}
	if v, ok := m["timeouts"]; ok {
		var t Timeouts
		if err := json.Unmarshal(v, &t); err == nil {
			c.Timeouts = &t
		}
	}
	if v, ok := m["strictFileInteractability"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			c.StrictFileInteractability = &b
		}
	}
	if v, ok := m["unhandledPromptBehavior"]; ok {
		json.Unmarshal(v, &c.UnhandledPromptBehavior)
	}
	if v, ok := m["webSocketUrl"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			c.WebSocketURL = s
		}
	}

	switch vendor {
	case VendorFirefox:
		if v, ok := m["moz:firefoxOptions"]; ok {
			var f FirefoxOptions
			if err := json.Unmarshal(v, &f); err == nil {
				c.Firefox = &f
			}
		}
	case VendorChrome:
		if v, ok := m["goog:chromeOptions"]; ok {
			var ch ChromeOptions
			if err := json.Unmarshal(v, &ch); err == nil {
				c.Chrome = &ch
			}
		}
	}

	for k, v := range m {
		if !knownCapaKeys[k] {
			c.Alien[k] = v
		}
	}

	return c, nil
}

var bidiURLPattern = regexp.MustCompile(`^ws://(.*)/session/(.*)$`)

// ParseBiDiURL splits a webSocketUrl such as "ws://127.0.0.1:9222/session/abcd"
// into its host:port and session id.
func ParseBiDiURL(wsURL string) (hostport, sessionID string, err error) {
	m := bidiURLPattern.FindStringSubmatch(wsURL)
	if m == nil {
		return "", "", wderr.ErrBuggy
	}
	return m[1], m[2], nil
}
