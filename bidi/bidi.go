// Package bidi implements the WebDriver BiDi client: a classic session
// opted into a WebSocket transport, then JSON commands framed as single
// text messages over that transport.
package bidi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"

	"github.com/imichael2e2/wdc/capability"
	"github.com/imichael2e2/wdc/httpcodec"
	"github.com/imichael2e2/wdc/wderr"
	"github.com/imichael2e2/wdc/wsproto"
)

// ContextType selects a tab or a separate window for gen_ctx.
type ContextType uint8

const (
	ContextTab ContextType = iota + 1
	ContextWindow
)

// Client is a BiDi-capable client: the classic HTTP stream used for
// session setup and teardown, plus a second WebSocket stream used for
// the BiDi command/response exchange.
type Client struct {
	id     string
	vendor capability.Vendor
	host   string
	port   uint16

	mu       sync.Mutex
	httpConn net.Conn
	httpR    *bufio.Reader
	wsConn   net.Conn
	wsR      *bufio.Reader

	sessionID string
	ctxList   []string
	nextID    uint32

	// pending tracks message ids sent to the driver awaiting their
	// response. Responses are still consumed strictly in send order (the
	// transport is synchronous request/response, not pipelined), so this
	// queue is popped immediately after the matching read rather than
	// searched; it exists so a future multiplexed transport has
	// somewhere to hang out-of-order correlation without changing the
	// id-allocation contract.
	pending *queue.Queue

	readTimeout  time.Duration
	writeTimeout time.Duration

	log zerolog.Logger
}

// defaultReadTimeout/defaultWriteTimeout mirror driverclient's defaults,
// applied to both the classic and WebSocket streams until SetTimeouts
// overrides them.
const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// SetTimeouts overrides the per-operation read/write deadlines applied to
// both the classic and WebSocket streams, e.g. from a loaded
// control.Config. A zero duration disables that deadline.
func (c *Client) SetTimeouts(readTimeout, writeTimeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readTimeout = readTimeout
	c.writeTimeout = writeTimeout
}

func (c *Client) applyWriteDeadline(conn net.Conn) {
	if conn == nil {
		return
	}
	if c.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	} else {
		conn.SetWriteDeadline(time.Time{})
	}
}

func (c *Client) applyReadDeadline(conn net.Conn) {
	if conn == nil {
		return
	}
	if c.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	} else {
		conn.SetReadDeadline(time.Time{})
	}
}

func addr(host string, port uint16) string {
	return fmt.Sprintf("%s:%d", host, port)
}

func (c *Client) addr() string { return addr(c.host, c.port) }

func newClient(host string, port uint16, vendor capability.Vendor, logger zerolog.Logger) *Client {
	id := shortuuid.New()
	return &Client{
		id:           id,
		vendor:       vendor,
		host:         host,
		port:         port,
		nextID:       1,
		pending:      queue.New(),
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		log:          logger.With().Str("bidi_client", id).Logger(),
	}
}

func (c *Client) ensureHTTPConnected() error {
	if c.httpConn != nil {
		return nil
	}
	conn, err := net.Dial("tcp", c.addr())
	if err != nil {
		c.log.Warn().Err(err).Msg("dial failed")
		return wderr.ErrRemoteConnectionFailed
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	c.httpConn = conn
	c.httpR = bufio.NewReader(conn)
	return nil
}

func (c *Client) isReady() error {
	if err := c.ensureHTTPConnected(); err != nil {
		return err
	}

	req := httpcodec.NewRequest(httpcodec.MethodGet, "/status").Host(c.addr())
	c.applyWriteDeadline(c.httpConn)
	if _, err := req.WriteTo(c.httpConn); err != nil {
		return wderr.ErrRemoteConnectionFailed
	}
	c.applyReadDeadline(c.httpConn)
	resp, err := httpcodec.ParseResponseFromStream(c.httpR, "", 0, 0)
	if err != nil {
		return wderr.ErrBuggy
	}

	if !resp.IsOK() {
		return wderr.DecodeBadCmd(resp.MessageBody)
	}

	var sr struct {
		Value struct {
			Ready   bool   `json:"ready"`
			Message string `json:"message"`
		} `json:"value"`
	}
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

// newSessionBidi mandates webSocketUrl:true, tolerant of whatever else
// the server offers, then opens and handshakes the second WebSocket
// stream against the returned URL.
func (c *Client) newSessionBidi() error {
	if err := c.ensureHTTPConnected(); err != nil {
		return err
	}

	req := capability.NewRequest()
	req.Allow(&capability.Capabilities{})
	req.Mandate(&capability.Capabilities{EnableBidi: true})

	body, err := req.Body()
	if err != nil {
		return wderr.ErrBuggy
	}

	httpReq := httpcodec.NewRequest(httpcodec.MethodPost, "/session").
		Host(c.addr()).
		ContentType("application/json").
		WithBody(body)
	c.applyWriteDeadline(c.httpConn)
	if _, err := httpReq.WriteTo(c.httpConn); err != nil {
		return wderr.ErrRemoteConnectionFailed
	}

	c.applyReadDeadline(c.httpConn)
	resp, err := httpcodec.ParseResponseFromStream(c.httpR, "", 0, 0)
	if err != nil {
		return wderr.ErrBuggy
	}
	if !resp.IsOK() {
		return wderr.DecodeBadCmd(resp.MessageBody)
	}

	result, err := capability.DecodeSessionResult(resp.MessageBody, c.vendor)
	if err != nil {
		return wderr.ErrBuggy
	}
	c.sessionID = result.SessionID

	if result.WebSocketURL == "" {
		return wderr.ErrUnsupportedOperation
	}

	hostport, sessionID, err := capability.ParseBiDiURL(result.WebSocketURL)
	if err != nil {
		return err
	}

	wsConn, err := net.Dial("tcp", hostport)
	if err != nil {
		return wderr.ErrRemoteConnectionFailed
	}
	if tcpConn, ok := wsConn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	wsReq := wsproto.BuildHandshakeRequest(hostport, "/session/"+sessionID)
	if _, err := wsReq.WriteTo(wsConn); err != nil {
		wsConn.Close()
		return wderr.ErrRemoteConnectionFailed
	}
	wsR := bufio.NewReader(wsConn)
	if err := wsproto.VerifyHandshakeResponse(wsR); err != nil {
		wsConn.Close()
		return wderr.ErrBuggy
	}

	c.wsConn = wsConn
	c.wsR = wsR
	return nil
}

const readyPollInterval = 100 * time.Microsecond

// Init connects, waits for driver readiness, opens a BiDi session, and
// establishes the WebSocket transport, bounded by readyTimeout.
func Init(host string, port uint16, vendor capability.Vendor, readyTimeout time.Duration, logger zerolog.Logger) (*Client, error) {
	c := newClient(host, port, vendor, logger)
	if err := c.ensureHTTPConnected(); err != nil {
		return nil, err
	}

	var elapsed time.Duration
	for elapsed < readyTimeout {
		err := c.isReady()
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
	for elapsed < readyTimeout {
		err := c.newSessionBidi()
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

// command is the outgoing {id, method, params} envelope.
type command struct {
	ID     uint32      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

func (c *Client) sendCommand(method string, params interface{}) (uint32, []byte, error) {
	if c.wsConn == nil {
		return 0, nil, wderr.ErrRemoteConnectionFailed
	}

	id := c.nextID
	c.nextID++
	c.pending.Add(id)

	payload, err := json.Marshal(command{ID: id, Method: method, Params: params})
	if err != nil {
		c.pending.Remove()
		return 0, nil, wderr.ErrBuggy
	}

	settings := wsproto.MessageSettings{
		Mask:    true,
		Allowed: wsproto.AllAllowed,
	}
	msg, err := wsproto.EncodeMessage(payload, settings)
	if err != nil {
		c.pending.Remove()
		return 0, nil, wderr.ErrBuggy
	}
	raw, err := wsproto.EncodeMessageBytes(msg)
	if err != nil {
		c.pending.Remove()
		return 0, nil, wderr.ErrBuggy
	}
	c.log.Debug().Uint32("id", id).Str("method", method).Msg("bidi command sent")
	c.applyWriteDeadline(c.wsConn)
	if _, err := c.wsConn.Write(raw); err != nil {
		c.pending.Remove()
		return 0, nil, wderr.ErrRemoteConnectionFailed
	}

	for _, f := range msg.Frames {
		c.log.Debug().Bool("fin", f.Fin).Uint8("opcode", f.Opcode).Int("len", len(f.Payload)).Msg("ws frame out")
	}

	c.applyReadDeadline(c.wsConn)
	resp, err := wsproto.DecodeMessage(c.wsR)
	if err != nil {
		c.pending.Remove()
		return 0, nil, wderr.ErrBuggy
	}
	for _, f := range resp.Frames {
		c.log.Debug().Bool("fin", f.Fin).Uint8("opcode", f.Opcode).Int("len", len(f.Payload)).Msg("ws frame in")
	}

	// The transport is strictly request/response, so the id at the front
	// of pending is always this call's own id; pop it to keep the queue
	// from growing unbounded across the client's lifetime.
	c.pending.Remove()

	return id, resp.Data(), nil
}

type createResult struct {
	Result struct {
		Context string `json:"context"`
	} `json:"result"`
}

// GenCtx issues browsingContext.create for the given context type and
// records the returned context id.
func (c *Client) GenCtx(ctxType ContextType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind := "window"
	if ctxType == ContextTab {
		kind = "tab"
	}

	_, data, err := c.sendCommand("browsingContext.create", map[string]string{"type": kind})
	if err != nil {
		return err
	}

	var cr createResult
	if err := json.Unmarshal(data, &cr); err != nil {
		return wderr.ErrBuggy
	}
	if cr.Result.Context == "" {
		return wderr.ErrBuggy
	}
	c.ctxList = append(c.ctxList, cr.Result.Context)
	return nil
}

// Navi issues browsingContext.navigate for ctxID.
func (c *Client) Navi(ctxID, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := map[string]string{"url": url, "context": ctxID}
	_, data, err := c.sendCommand("browsingContext.navigate", params)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "result") {
		return wderr.ErrBuggy
	}
	return nil
}

// CtxTree issues browsingContext.getTree.
func (c *Client) CtxTree() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, data, err := c.sendCommand("browsingContext.getTree", map[string]interface{}{})
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "result") {
		return wderr.ErrBuggy
	}
	return nil
}

// CtxList returns the browsing-context ids created so far.
func (c *Client) CtxList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.ctxList))
	copy(out, c.ctxList)
	return out
}

// Close deletes the active session, best-effort, then closes both
// streams.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" && c.httpConn != nil {
		req := httpcodec.NewRequest(httpcodec.MethodDelete, "/session/"+c.sessionID).Host(c.addr())
		if _, err := req.WriteTo(c.httpConn); err == nil {
			httpcodec.ParseResponseFromStream(c.httpR, "", 0, 0)
		}
		c.sessionID = ""
	}

	var err error
	if c.wsConn != nil {
		err = c.wsConn.Close()
		c.wsConn = nil
	}
	if c.httpConn != nil {
		if e := c.httpConn.Close(); e != nil && err == nil {
			err = e
		}
		c.httpConn = nil
	}
	return err
}

// SessionID returns the active classic session id, or "" if none.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}
