// Package driverclient implements the classic (HTTP/1.1) W3C WebDriver
// client: a single TCP stream to a driver server, session lifecycle, and
// the command surface built on top of httpcodec.
package driverclient

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"

	"github.com/imichael2e2/wdc/capability"
	"github.com/imichael2e2/wdc/httpcodec"
	"github.com/imichael2e2/wdc/wderr"
)

// Vendor identifies which driver server this client is talking to; it
// picks both the capability extension compartment and the decode path for
// NewSession's response.
type Vendor = capability.Vendor

const (
	VendorNone   = capability.VendorNone
	VendorGecko  = capability.VendorFirefox
	VendorChrome = capability.VendorChrome
)

// Client is a single-session WebDriver client: one TCP stream shared
// across commands, protected by a mutex so callers never need exclusive
// ownership to issue a command.
type Client struct {
	id     string
	vendor Vendor
	host   string
	port   uint16

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader

	sessionID string

	readTimeout  time.Duration
	writeTimeout time.Duration

	log zerolog.Logger
}

// defaultReadTimeout/defaultWriteTimeout are applied until SetTimeouts
// overrides them, matching the teacher's per-operation deadline pattern
// (client/client.go's ReadTimeout/WriteTimeout) rather than leaving reads
// and writes unbounded.
const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// New returns a bare client: connected to nothing yet, no session. Use
// Init to produce a client that is fully ready for automation.
func New(host string, port uint16, vendor Vendor, logger zerolog.Logger) *Client {
	id := shortuuid.New()
	return &Client{
		id:           id,
		vendor:       vendor,
		host:         host,
		port:         port,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		log:          logger.With().Str("wdc_client", id).Logger(),
	}
}

// SetTimeouts overrides the per-operation read/write deadlines applied to
// the underlying connection before each command's write and response
// read, e.g. from a loaded control.Config. A zero duration disables that
// deadline.
func (c *Client) SetTimeouts(readTimeout, writeTimeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readTimeout = readTimeout
	c.writeTimeout = writeTimeout
}

func (c *Client) applyWriteDeadline() {
	if c.conn == nil {
		return
	}
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	} else {
		c.conn.SetWriteDeadline(time.Time{})
	}
}

func (c *Client) applyReadDeadline() {
	if c.conn == nil {
		return
	}
	if c.readTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	} else {
		c.conn.SetReadDeadline(time.Time{})
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// connect dials the driver server. A failed dial leaves the client
// unconnected rather than erroring, matching the reference client's
// tolerant connect-then-check pattern.
func (c *Client) connect() error {
	conn, err := dialTCP(c.addr())
	if err != nil {
		c.log.Warn().Err(err).Str("addr", c.addr()).Msg("dial failed")
		return nil
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

func (c *Client) ensureConnected() error {
	if c.conn != nil {
		return nil
	}
	if err := c.connect(); err != nil {
		return err
	}
	if c.conn == nil {
		return wderr.ErrRemoteConnectionFailed
	}
	return nil
}

// IsReady probes GET /status, translating the driver's readiness payload
// into the taxonomy used by the retry loops in Init.
func (c *Client) IsReady() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(); err != nil {
		return err
	}

	req := httpcodec.NewRequest(httpcodec.MethodGet, "/status").Host(c.addr())
	c.applyWriteDeadline()
	if _, err := req.WriteTo(c.conn); err != nil {
		return wderr.ErrRemoteConnectionFailed
	}

	c.applyReadDeadline()
	resp, err := httpcodec.ParseResponseFromStream(c.reader, "", 0, 0)
	if err != nil {
		return wderr.ErrBuggy
	}

	c.log.Debug().Str("status", resp.Status).Msg("GET /status")

	if !resp.IsOK() {
		return wderr.DecodeBadCmd(resp.MessageBody)
	}

	var sr statusResult
	if err := json.Unmarshal(resp.MessageBody, &sr); err != nil {
		return wderr.ErrBuggy
	}
	if sr.Value.Ready {
		return nil
	}
	if sr.Value.Message == "Session already started" {
		return wderr.ErrDriverNotReadyBusySession
	}
	return wderr.ErrWebDriverNotReady
}

// newSession issues POST /session with req's body and records the
// returned session id.
func (c *Client) newSession(req *capability.Request) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	body, err := req.Body()
	if err != nil {
		return wderr.ErrBuggy
	}

	httpReq := httpcodec.NewRequest(httpcodec.MethodPost, "/session").
		Host(c.addr()).
		ContentType("application/json").
		WithBody(body)

	c.applyWriteDeadline()
	if _, err := httpReq.WriteTo(c.conn); err != nil {
		return wderr.ErrRemoteConnectionFailed
	}

	c.applyReadDeadline()
	resp, err := httpcodec.ParseResponseFromStream(c.reader, "", 0, 0)
	if err != nil {
		return wderr.ErrBuggy
	}

	c.log.Debug().Str("status", resp.Status).Msg("POST /session")

	if !resp.IsOK() {
		return wderr.DecodeBadCmd(resp.MessageBody)
	}

	result, err := capability.DecodeSessionResult(resp.MessageBody, c.vendor)
	if err != nil {
		return wderr.ErrBuggy
	}

	c.sessionID = result.SessionID
	return nil
}

// NewSessionDefault requests a session with no particular capabilities,
// tolerant of whatever the server offers.
func (c *Client) NewSessionDefault() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := capability.NewRequest()
	req.Allow(&capability.Capabilities{})
	return c.newSession(req)
}

// NewSessionWith requests a session mandating capa, tolerant as a
// fallback via an empty first-match entry.
func (c *Client) NewSessionWith(capa *capability.Capabilities) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := capability.NewRequest()
	req.Allow(&capability.Capabilities{})
	req.Mandate(capa)
	return c.newSession(req)
}

const readyPollInterval = 100 * time.Microsecond

// Init connects, waits for the driver to report readiness, then creates a
// session with no particular capabilities, retrying only on the
// transient busy conditions, bounded by readyTimeout.
func Init(host string, port uint16, vendor Vendor, readyTimeout time.Duration, logger zerolog.Logger) (*Client, error) {
	c := New(host, port, vendor, logger)
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	deadline := readyTimeout
	var elapsed time.Duration

	for elapsed < deadline {
		err := c.IsReady()
		if err == nil {
			break
		}
		if err == wderr.ErrDriverNotReadyBusySession {
			time.Sleep(readyPollInterval)
			elapsed += readyPollInterval
			continue
		}
		return nil, err
	}

	ready := false
	for elapsed < deadline {
		err := c.NewSessionDefault()
		if err == nil {
			ready = true
			break
		}
		if err == wderr.ErrBusyCreateSession {
			time.Sleep(readyPollInterval)
			elapsed += readyPollInterval
			continue
		}
		return nil, err
	}

	if !ready {
		return nil, wderr.ErrWebDriverNotReady
	}
	return c, nil
}

// InitWith is Init's single-server, single-capability counterpart: the
// session is created mandating capa rather than a tolerant default.
func InitWith(host string, port uint16, vendor Vendor, capa *capability.Capabilities, readyTimeout time.Duration, logger zerolog.Logger) (*Client, error) {
	c := New(host, port, vendor, logger)
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	deadline := readyTimeout
	var elapsed time.Duration

	for elapsed < deadline {
		err := c.IsReady()
		if err == nil {
			break
		}
		if err == wderr.ErrDriverNotReadyBusySession {
			time.Sleep(readyPollInterval)
			elapsed += readyPollInterval
			continue
		}
		return nil, err
	}

	ready := false
	for elapsed < deadline {
		err := c.NewSessionWith(capa)
		if err == nil {
			ready = true
			break
		}
		if err == wderr.ErrBusyCreateSession {
			time.Sleep(readyPollInterval)
			elapsed += readyPollInterval
			continue
		}
		return nil, err
	}

	if !ready {
		return nil, wderr.ErrWebDriverNotReady
	}
	return c, nil
}

// Close deletes the active session, best-effort, then closes the
// underlying TCP connection. Safe to call on an already-closed client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" && c.conn != nil {
		if err := c.deleteSession(c.sessionID); err != nil {
			c.log.Warn().Err(err).Msg("delete session on close failed")
		}
		c.sessionID = ""
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) deleteSession(sessionID string) error {
	req := httpcodec.NewRequest(httpcodec.MethodDelete, "/session/"+sessionID).Host(c.addr())
	c.applyWriteDeadline()
	if _, err := req.WriteTo(c.conn); err != nil {
		return wderr.ErrRemoteConnectionFailed
	}
	c.applyReadDeadline()
	resp, err := httpcodec.ParseResponseFromStream(c.reader, "", 0, 0)
	if err != nil {
		return wderr.ErrBuggy
	}
	if !resp.IsOK() {
		return wderr.ErrBuggy
	}
	return nil
}

// SessionID returns the active session id, or "" if none.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}
