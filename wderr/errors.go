// Package wderr defines the error taxonomy shared by every layer of the
// WebDriver client: the wire codecs (httpcodec, wsproto), the capability
// model, and the two command surfaces (driverclient, bidi).
//
// Codec-level errors are fine-grained (one sentinel per grammar violation);
// at the driverclient/bidi boundary they collapse to the coarser set below,
// per the propagation policy: retry only applies to the two transient
// kinds, and only during init.
package wderr

import (
	"encoding/json"
	"fmt"
)

// Sentinel errors forming the client-facing taxonomy.
var (
	// ErrBuggy is the defensive case for unreachable paths or
	// parse-inconsistencies that should never occur in correct use.
	ErrBuggy = fmt.Errorf("wdc: possible bug found")

	// ErrBusyCreateSession signals a transient "session not created" /
	// "Session is already started" response from the driver. Absorbed by
	// the retry loop in init.
	ErrBusyCreateSession = fmt.Errorf("wdc: busy creating session")

	// ErrDriverNotReadyBusySession signals a transient /status response
	// with ready=false and message "Session already started". Absorbed by
	// the retry loop in init.
	ErrDriverNotReadyBusySession = fmt.Errorf("wdc: driver not ready, busy session")

	// ErrNotReadyForNewSession is a terminal readiness failure distinct
	// from WebDriverNotReady: the driver answered but refuses new sessions
	// for a non-transient reason.
	ErrNotReadyForNewSession = fmt.Errorf("wdc: driver not ready for new session")

	// ErrWebDriverNotReady is yielded when init exhausts its ready_timeout
	// budget without a successful status probe and session creation.
	ErrWebDriverNotReady = fmt.Errorf("wdc: webdriver server not ready")

	// ErrUnsupportedOperation is a placeholder for operations the vendor
	// cannot serve.
	ErrUnsupportedOperation = fmt.Errorf("wdc: unsupported operation")

	// ErrRemoteConnectionFailed is a TCP-level connection failure, or a
	// command issued against a client with no live stream/session.
	ErrRemoteConnectionFailed = fmt.Errorf("wdc: webdriver remote connection failed")
)

// BadDrvCmdError is a structured driver error echoed from the server in the
// `{"value":{"error":...,"message":...}}` envelope, for any failure not
// recognized as one of the transient sentinels above.
type BadDrvCmdError struct {
	ErrorCode string
	Message   string
}

func (e *BadDrvCmdError) Error() string {
	return fmt.Sprintf("wdc: bad driver command: %s: %s", e.ErrorCode, e.Message)
}

// NewBadDrvCmd builds a BadDrvCmdError, or one of the transient sentinels
// when the (error, message) pair matches a known-transient signal.
func NewBadDrvCmd(errorCode, message string) error {
	if errorCode == "session not created" && message == "Session is already started" {
		return ErrBusyCreateSession
	}
	return &BadDrvCmdError{ErrorCode: errorCode, Message: message}
}

// DecodeBadCmd parses a non-2xx command response body in the
// {"value":{"error":...,"message":...}} shape shared by every command
// surface, dispatching through NewBadDrvCmd. A body that does not even
// parse is ErrBuggy: the server responded with something this client's
// wire contract does not recognize at all.
func DecodeBadCmd(body []byte) error {
	var e struct {
		Value struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ErrBuggy
	}
	return NewBadDrvCmd(e.Value.Error, e.Value.Message)
}
