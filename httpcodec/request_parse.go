package httpcodec

import (
	"bufio"
	"bytes"
	"io"
)

// ParsedRequest is the result of parsing a request off a stream; used by
// the package's own loopback tests and by anything mocking a driver server.
type ParsedRequest struct {
	Method     Method
	RequestURI string
	Version    string
	Headers    []byte
	Body       []byte
}

// ParseRequestFromStream reads a request line, header block, and (if
// Content-Length is present) body from r.
func ParseRequestFromStream(r *bufio.Reader) (*ParsedRequest, error) {
	line, err := readUntilCRLF(r)
	if err != nil {
		return nil, err
	}

	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) != 3 {
		return nil, ErrInvalidHTTPData
	}

	req := &ParsedRequest{
		Method:     Method(parts[0]),
		RequestURI: string(parts[1]),
		Version:    string(parts[2]),
	}

	headers, err := readHeaderBlock(r)
	if err != nil {
		return nil, err
	}
	req.Headers = headers

	contentLength, ok, err := contentLengthOf(headers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return req, nil
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	req.Body = body
	return req, nil
}
