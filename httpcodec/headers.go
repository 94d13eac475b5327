package httpcodec

// HeaderNames is the fixed whitelist of headers this codec knows how to
// look up by name. All of them are looked up through the single
// HeaderLookup function below, which takes the name as an argument.
const (
	HeaderContentLength      = "Content-Length"
	HeaderConnection         = "Connection"
	HeaderUpgrade            = "Upgrade"
	HeaderHost               = "Host"
	HeaderSecWebSocketKey    = "Sec-WebSocket-Key"
	HeaderSecWebSocketVer    = "Sec-WebSocket-Version"
	HeaderSecWebSocketAccept = "Sec-WebSocket-Accept"
)

// lookupHeader scans headers for name (case-insensitive over the whole
// name), and returns the right-trimmed value bytes, or ok=false if not
// present.
//
// Algorithm: scan for a matching initial letter (upper or lower), then
// compare the rest of the name case-insensitively; on match, advance past the colon, skip
// leading linear whitespace, scan to CRLF, right-trim linear whitespace.
func lookupHeader(headers []byte, name string) (value []byte, ok bool) {
	if len(name) == 0 {
		return nil, false
	}
	upper, lower := upperFirst(name[0]), lowerFirst(name[0])

	for i := 0; i < len(headers); i++ {
		if headers[i] != upper && headers[i] != lower {
			continue
		}
		if !hasPrefixFold(headers[i:], name) {
			continue
		}
		rest := headers[i+len(name):]
		if len(rest) == 0 || rest[0] != ':' {
			continue
		}
		rest = rest[1:]
		rest = skipLWS(rest)

		end := 0
		for end < len(rest) {
			if rest[end] == '\r' {
				break
			}
			end++
		}
		v := rightTrimLWS(rest[:end])
		return v, true
	}
	return nil, false
}

// HeaderLookup exposes lookupHeader for named fixed headers, returning
// ErrHeaderNotExist{Name} on a miss.
func HeaderLookup(headers []byte, name string) ([]byte, error) {
	v, ok := lookupHeader(headers, name)
	if !ok {
		return nil, &ErrHeaderNotExist{Name: name}
	}
	return v, nil
}

func upperFirst(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func lowerFirst(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// hasPrefixFold reports whether buf starts with name, comparing
// case-insensitively byte by byte.
func hasPrefixFold(buf []byte, name string) bool {
	if len(buf) < len(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if lowerFirst(buf[i]) != lowerFirst(name[i]) {
			return false
		}
	}
	return true
}

func skipLWS(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

func rightTrimLWS(b []byte) []byte {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}
	return b[:end]
}
