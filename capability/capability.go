// Package capability implements the W3C WebDriver capability model: the
// standard fields every vendor honors, a pair of vendor extension
// compartments (moz:firefoxOptions, goog:chromeOptions), and the
// always-match/first-match request shape used by NewSession.
package capability

import "encoding/json"

// Vendor identifies which extension compartment a Capabilities value
// carries, if any.
type Vendor int

const (
	VendorNone Vendor = iota
	VendorFirefox
	VendorChrome
)

// Timeouts mirrors the W3C timeouts capability. Zero-value Timeouts is not
// meaningful; use DefaultTimeouts for the spec's documented defaults.
type Timeouts struct {
	Script   uint32 `json:"script"`
	PageLoad uint32 `json:"pageLoad"`
	Implicit uint32 `json:"implicit"`
}

// DefaultTimeouts matches the values a fresh session is documented to
// start with.
func DefaultTimeouts() Timeouts {
	return Timeouts{Script: 30_000, PageLoad: 300_000, Implicit: 0}
}

// Proxy is the W3C proxy sub-record. Fields are omitted from the wire
// representation when left at their zero value, matching the reference
// client's skip-if-empty serialization.
type Proxy struct {
	ProxyType          string   `json:"proxyType,omitempty"`
	ProxyAutoconfigURL string   `json:"proxyAutoconfigUrl,omitempty"`
	FTPProxy           string   `json:"ftpProxy,omitempty"`
	HTTPProxy          string   `json:"httpProxy,omitempty"`
	NoProxy            []string `json:"noProxy,omitempty"`
	SSLProxy           string   `json:"sslProxy,omitempty"`
	SocksProxy         string   `json:"socksProxy,omitempty"`
	SocksVersion       uint8    `json:"socksVersion,omitempty"`
}

// PrefMap is a browser preference map whose values are re-typed at
// serialization time: "true"/"false" become JSON booleans, a
// decimal-parseable string becomes a JSON number, anything else stays a
// JSON string.
type PrefMap map[string]string

// MarshalJSON implements the typed re-emission described on PrefMap.
func (p PrefMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p))
	for k, v := range p {
		raw, err := typedPrefValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

func typedPrefValue(v string) (json.RawMessage, error) {
	switch v {
	case "true":
		return json.RawMessage("true"), nil
	case "false":
		return json.RawMessage("false"), nil
	}
	if isDecimal(v) {
		return json.RawMessage(v), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FirefoxOptions is the moz:firefoxOptions extension compartment.
type FirefoxOptions struct {
	Args           []string `json:"args,omitempty"`
	Binary         string   `json:"binary,omitempty"`
	Profile        string   `json:"profile,omitempty"`
	Prefs          PrefMap  `json:"prefs,omitempty"`
	AndroidPackage string   `json:"androidPackage,omitempty"`
}

func (f *FirefoxOptions) isInsignificant() bool {
	return f == nil || (len(f.Args) == 0 && f.Binary == "" && f.Profile == "" &&
		len(f.Prefs) == 0 && f.AndroidPackage == "")
}

// ChromeOptions is the goog:chromeOptions extension compartment.
type ChromeOptions struct {
	Args            []string `json:"args,omitempty"`
	Binary          string   `json:"binary,omitempty"`
	Extensions      []string `json:"extensions,omitempty"`
	Prefs           PrefMap  `json:"prefs,omitempty"`
	Detach          *bool    `json:"detach,omitempty"`
	DebuggerAddress string   `json:"debuggerAddress,omitempty"`
	ExcludeSwitches []string `json:"excludeSwitches,omitempty"`
	MinidumpPath    string   `json:"minidumpPath,omitempty"`
	WindowTypes     []string `json:"windowTypes,omitempty"`
}

func (c *ChromeOptions) isInsignificant() bool {
	return c == nil || (len(c.Args) == 0 && c.Binary == "" && len(c.Extensions) == 0 &&
		len(c.Prefs) == 0 && c.Detach == nil && c.DebuggerAddress == "" &&
		len(c.ExcludeSwitches) == 0 && c.MinidumpPath == "" && len(c.WindowTypes) == 0)
}

// Capabilities is one vendor-parameterized capabilities value: the W3C
// standard fields plus, depending on Vendor, a Firefox or Chrome
// extension compartment. Alien holds response-only fields a server sent
// back that this client does not model (e.g. chromedriverVersion,
// userDataDir, webauthn:*); it is never sent, only populated on decode.
type Capabilities struct {
	BrowserName               string
	BrowserVersion            string
	PlatformName              string
	AcceptInsecureCerts       *bool
	PageLoadStrategy          string
	Proxy                     *Proxy
	WindowRect                *bool
	Timeouts                  *Timeouts
	StrictFileInteractability *bool
	UnhandledPromptBehavior   string
	EnableBidi                bool // requests webSocketUrl:true
	WebSocketURL              string

	Vendor  Vendor
	Firefox *FirefoxOptions
	Chrome  *ChromeOptions

	Alien map[string]json.RawMessage
}

// IsConflictWith reports whether self and other both set any of the same
// standard or vendor-extension field, following the reference client's
// conflict rule used by mandate/allow composition.
func (c *Capabilities) IsConflictWith(other *Capabilities) bool {
	if c.BrowserName != "" && other.BrowserName != "" {
		return true
	}
	if c.BrowserVersion != "" && other.BrowserVersion != "" {
		return true
	}
	if c.PlatformName != "" && other.PlatformName != "" {
		return true
	}
	if c.AcceptInsecureCerts != nil && other.AcceptInsecureCerts != nil {
		return true
	}
	if c.PageLoadStrategy != "" && other.PageLoadStrategy != "" {
		return true
	}
	if c.Proxy != nil && c.Proxy.ProxyType != "" && other.Proxy != nil && other.Proxy.ProxyType != "" {
		return true
	}
	if c.WindowRect != nil && other.WindowRect != nil {
		return true
	}
	if c.Timeouts != nil && other.Timeouts != nil {
		return true
	}
	if c.StrictFileInteractability != nil && other.StrictFileInteractability != nil {
		return true
	}
	if c.UnhandledPromptBehavior != "" && other.UnhandledPromptBehavior != "" {
		return true
	}
	if c.Firefox.isConflictWith(other.Firefox) {
		return true
	}
	if c.Chrome.isConflictWith(other.Chrome) {
		return true
	}
	return false
}

// isConflictWith follows the original client's narrower vendor-extension
// conflict rule: only binary and args (plus profile, for Firefox) count,
// not prefs/extensions/detach/debuggerAddress.
func (f *FirefoxOptions) isConflictWith(other *FirefoxOptions) bool {
	if f == nil || other == nil {
		return false
	}
	if f.Binary != "" && other.Binary != "" {
		return true
	}
	if len(f.Args) > 0 && len(other.Args) > 0 {
		return true
	}
	if f.Profile != "" && other.Profile != "" {
		return true
	}
	return false
}

func (c *ChromeOptions) isConflictWith(other *ChromeOptions) bool {
	if c == nil || other == nil {
		return false
	}
	if c.Binary != "" && other.Binary != "" {
		return true
	}
	if len(c.Args) > 0 && len(other.Args) > 0 {
		return true
	}
	return false
}

// MarshalJSON serializes only the fields that are set, in the shape a
// WebDriver server expects: standard fields flattened alongside the
// vendor extension key (moz:firefoxOptions or goog:chromeOptions).
func (c *Capabilities) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{})

	if c.BrowserName != "" {
		m["browserName"] = c.BrowserName
	}
	if c.BrowserVersion != "" {
		m["browserVersion"] = c.BrowserVersion
	}
	if c.PlatformName != "" {
		m["platformName"] = c.PlatformName
	}
	if c.AcceptInsecureCerts != nil {
		m["acceptInsecureCerts"] = *c.AcceptInsecureCerts
	}
	if c.PageLoadStrategy != "" {
		m["pageLoadStrategy"] = c.PageLoadStrategy
	}
	if c.Proxy != nil {
		m["proxy"] = c.Proxy
	}
	if c.WindowRect != nil {
		m["setWindowRect"] = *c.WindowRect
	}
	if c.Timeouts != nil {
		m["timeouts"] = c.Timeouts
	}
	if c.StrictFileInteractability != nil {
		m["strictFileInteractability"] = *c.StrictFileInteractability
	}
	if c.UnhandledPromptBehavior != "" {
		m["unhandledPromptBehavior"] = c.UnhandledPromptBehavior
	}
	if c.EnableBidi {
		m["webSocketUrl"] = true
	}

	switch c.Vendor {
	case VendorFirefox:
		if !c.Firefox.isInsignificant() {
			m["moz:firefoxOptions"] = c.Firefox
		}
	case VendorChrome:
		if !c.Chrome.isInsignificant() {
			m["goog:chromeOptions"] = c.Chrome
		}
	}

	return json.Marshal(m)
}
