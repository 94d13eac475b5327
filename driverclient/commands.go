package driverclient

import (
	"encoding/json"

	"github.com/imichael2e2/wdc/httpcodec"
	"github.com/imichael2e2/wdc/wderr"
)

// insigHead/insigTail per command: the bytes a command's JSON response
// wraps its meaningful payload in, trimmed at the codec layer so callers
// never see the envelope.
const (
	insigHeadGetURL     = 10
	insigTailGetURL     = 2
	insigHeadFindElem   = 49
	insigTailFindElem   = 3
	insigHeadScreenshot = 10
	insigTailScreenshot = 2
	insigHeadExec       = 9
	insigTailExec       = 1
)

func (c *Client) sessionPath(suffix string) string {
	return "/session/" + c.sessionID + suffix
}

// do sends an HTTP request over the client's shared stream and returns the
// trimmed, parsed response, dispatching non-2xx bodies through the shared
// bad-command decoder. A non-empty persistPath streams the trimmed body to
// that file instead of buffering it in Response.MessageBody.
func (c *Client) do(req *httpcodec.Request, persistPath string, insigHead, insigTail int) (*httpcodec.Response, error) {
	if c.conn == nil {
		return nil, wderr.ErrRemoteConnectionFailed
	}
	c.applyWriteDeadline()
	if _, err := req.WriteTo(c.conn); err != nil {
		return nil, wderr.ErrRemoteConnectionFailed
	}
	c.applyReadDeadline()
	resp, err := httpcodec.ParseResponseFromStream(c.reader, persistPath, insigHead, insigTail)
	if err != nil {
		return nil, wderr.ErrBuggy
	}
	if !resp.IsOK() {
		return nil, wderr.DecodeBadCmd(resp.MessageBody)
	}
	return resp, nil
}

func (c *Client) postJSON(path string, body []byte, insigHead, insigTail int) (*httpcodec.Response, error) {
	req := httpcodec.NewRequest(httpcodec.MethodPost, path).
		Host(c.addr()).
		ContentType("application/json").
		WithBody(body)
	return c.do(req, "", insigHead, insigTail)
}

func (c *Client) postJSONToFile(path string, body []byte, persistPath string, insigHead, insigTail int) (*httpcodec.Response, error) {
	req := httpcodec.NewRequest(httpcodec.MethodPost, path).
		Host(c.addr()).
		ContentType("application/json").
		WithBody(body)
	return c.do(req, persistPath, insigHead, insigTail)
}

func (c *Client) getPlain(path string, insigHead, insigTail int) (*httpcodec.Response, error) {
	req := httpcodec.NewRequest(httpcodec.MethodGet, path).Host(c.addr())
	return c.do(req, "", insigHead, insigTail)
}

func (c *Client) getToFile(path, persistPath string, insigHead, insigTail int) (*httpcodec.Response, error) {
	req := httpcodec.NewRequest(httpcodec.MethodGet, path).Host(c.addr())
	return c.do(req, persistPath, insigHead, insigTail)
}

// Navigate issues POST /session/{id}/url.
func (c *Client) Navigate(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, _ := json.Marshal(map[string]string{"url": url})
	_, err := c.postJSON(c.sessionPath("/url"), body, 0, 0)
	return err
}

// CurrentURL issues GET /session/{id}/url, trimming the JSON envelope
// around the URL string.
func (c *Client) CurrentURL() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.getPlain(c.sessionPath("/url"), insigHeadGetURL, insigTailGetURL)
	if err != nil {
		return "", err
	}
	return string(resp.MessageBody), nil
}

// FindElemCSS issues POST /session/{id}/element with a css selector
// strategy, returning the located element's reference id.
func (c *Client) FindElemCSS(selector string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, _ := json.Marshal(map[string]string{"using": "css selector", "value": selector})
	resp, err := c.postJSON(c.sessionPath("/element"), body, insigHeadFindElem, insigTailFindElem)
	if err != nil {
		return "", err
	}
	return string(resp.MessageBody), nil
}

// FindElemsCSS issues POST /session/{id}/elements with a css selector
// strategy, returning every matched element's reference id.
func (c *Client) FindElemsCSS(selector string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, _ := json.Marshal(map[string]string{"using": "css selector", "value": selector})
	resp, err := c.postJSON(c.sessionPath("/elements"), body, 0, 0)
	if err != nil {
		return nil, err
	}
	var r findElemsResult
	if err := json.Unmarshal(resp.MessageBody, &r); err != nil {
		return nil, wderr.ErrBuggy
	}
	return r.elementIDs(), nil
}

// ElemSendKeys issues POST /session/{id}/element/{elemId}/value.
func (c *Client) ElemSendKeys(elemID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, _ := json.Marshal(map[string]string{"text": text})
	_, err := c.postJSON(c.sessionPath("/element/"+elemID+"/value"), body, 0, 0)
	return err
}

// Screenshot issues GET /session/{id}/screenshot, returning the
// base64-encoded PNG payload.
func (c *Client) Screenshot() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.getPlain(c.sessionPath("/screenshot"), insigHeadScreenshot, insigTailScreenshot)
	if err != nil {
		return "", err
	}
	return string(resp.MessageBody), nil
}

// ScreenshotToFile is Screenshot's disk-streaming counterpart: the
// trimmed base64 payload is written directly to persistPath instead of
// being buffered in memory.
func (c *Client) ScreenshotToFile(persistPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.getToFile(c.sessionPath("/screenshot"), persistPath, insigHeadScreenshot, insigTailScreenshot)
	return err
}

// ScreenshotElem issues GET /session/{id}/element/{elemId}/screenshot.
func (c *Client) ScreenshotElem(elemID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.getPlain(c.sessionPath("/element/"+elemID+"/screenshot"), insigHeadScreenshot, insigTailScreenshot)
	if err != nil {
		return "", err
	}
	return string(resp.MessageBody), nil
}

// ScreenshotElemToFile is ScreenshotElem's disk-streaming counterpart.
func (c *Client) ScreenshotElemToFile(elemID, persistPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.getToFile(c.sessionPath("/element/"+elemID+"/screenshot"), persistPath, insigHeadScreenshot, insigTailScreenshot)
	return err
}

// PrintPage issues POST /session/{id}/print, returning the
// base64-encoded PDF payload.
func (c *Client) PrintPage() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body := []byte(`{"background":true,"orientation":"portrait"}`)
	resp, err := c.postJSON(c.sessionPath("/print"), body, insigHeadScreenshot, insigTailScreenshot)
	if err != nil {
		return "", err
	}
	return string(resp.MessageBody), nil
}

// PrintPageToFile is PrintPage's disk-streaming counterpart.
func (c *Client) PrintPageToFile(persistPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	body := []byte(`{"background":true,"orientation":"portrait"}`)
	_, err := c.postJSONToFile(c.sessionPath("/print"), body, persistPath, insigHeadScreenshot, insigTailScreenshot)
	return err
}

// PageSource issues GET /session/{id}/source.
func (c *Client) PageSource() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.getPlain(c.sessionPath("/source"), insigHeadScreenshot, insigTailScreenshot)
	if err != nil {
		return "", err
	}
	return string(resp.MessageBody), nil
}

// PageSourceToFile is PageSource's disk-streaming counterpart.
func (c *Client) PageSourceToFile(persistPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.getToFile(c.sessionPath("/source"), persistPath, insigHeadScreenshot, insigTailScreenshot)
	return err
}

// ExecSync issues POST /session/{id}/execute/sync, returning the raw JSON
// value the script returned.
func (c *Client) ExecSync(script string, args []interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if args == nil {
		args = []interface{}{}
	}
	body, _ := json.Marshal(map[string]interface{}{"script": script, "args": args})
	resp, err := c.postJSON(c.sessionPath("/execute/sync"), body, insigHeadExec, insigTailExec)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.MessageBody), nil
}

// ExecAsync issues POST /session/{id}/execute/async.
func (c *Client) ExecAsync(script string, args []interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if args == nil {
		args = []interface{}{}
	}
	body, _ := json.Marshal(map[string]interface{}{"script": script, "args": args})
	resp, err := c.postJSON(c.sessionPath("/execute/async"), body, insigHeadExec, insigTailExec)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.MessageBody), nil
}

// PerformActions issues POST /session/{id}/actions with the given action
// group.
func (c *Client) PerformActions(group *ActionGroup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := group.MarshalJSON()
	if err != nil {
		return wderr.ErrBuggy
	}
	_, err = c.postJSON(c.sessionPath("/actions"), body, 0, 0)
	return err
}
