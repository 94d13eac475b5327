package httpcodec

import "fmt"

// Error taxonomy for the HTTP codec layer, collapsed at the driverclient
// boundary into the wderr sentinels (see wderr package doc).
var (
	ErrBuggy                = fmt.Errorf("httpcodec: internal inconsistency")
	ErrInvalidHTTPData      = fmt.Errorf("httpcodec: invalid HTTP grammar")
	ErrInvalidHTTPVersion   = fmt.Errorf("httpcodec: invalid or unsupported HTTP version")
	ErrInvalidContentLength = fmt.Errorf("httpcodec: invalid Content-Length value")
	ErrPersistBodyPathEmpty = fmt.Errorf("httpcodec: persistence file could not be created")
	ErrPersistBodyWrite     = fmt.Errorf("httpcodec: failed writing persisted body")
	ErrIncompleteFinish     = fmt.Errorf("httpcodec: stream ended before message was complete")
)

// ErrHeaderNotExist reports a lookup miss for a specific header name.
type ErrHeaderNotExist struct {
	Name string
}

func (e *ErrHeaderNotExist) Error() string {
	return fmt.Sprintf("httpcodec: header does not exist: %s", e.Name)
}
