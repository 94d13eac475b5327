package capability

import "encoding/json"

// Request is the always-match/first-match shape NewSession sends, per
// the W3C capabilities processing algorithm.
type Request struct {
	AlwaysMatch *Capabilities
	FirstMatch  []*Capabilities
}

// NewRequest returns an empty request ready for Mandate/Allow calls.
func NewRequest() *Request {
	return &Request{AlwaysMatch: &Capabilities{}}
}

// Mandate replaces AlwaysMatch with other, then drops any FirstMatch
// entry that now conflicts with it. A later Mandate call supersedes an
// earlier one entirely.
func (r *Request) Mandate(other *Capabilities) {
	r.AlwaysMatch = other

	kept := r.FirstMatch[:0]
	for _, fm := range r.FirstMatch {
		if !r.AlwaysMatch.IsConflictWith(fm) {
			kept = append(kept, fm)
		}
	}
	r.FirstMatch = kept
}

// Allow appends other to FirstMatch, unless it conflicts with the current
// AlwaysMatch, in which case it is silently dropped.
func (r *Request) Allow(other *Capabilities) *Request {
	if !r.AlwaysMatch.IsConflictWith(other) {
		r.FirstMatch = append(r.FirstMatch, other)
	}
	return r
}

// MarshalJSON emits {"alwaysMatch": ..., "firstMatch": [...]}.
func (r *Request) MarshalJSON() ([]byte, error) {
	firstMatch := r.FirstMatch
	if firstMatch == nil {
		firstMatch = []*Capabilities{}
	}
	return json.Marshal(struct {
		AlwaysMatch *Capabilities   `json:"alwaysMatch"`
		FirstMatch  []*Capabilities `json:"firstMatch"`
	}{
		AlwaysMatch: r.AlwaysMatch,
		FirstMatch:  firstMatch,
	})
}

// Body wraps the request in the NewSession request body's outer
// {"capabilities": ...} envelope.
func (r *Request) Body() ([]byte, error) {
	inner, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Capabilities json.RawMessage `json:"capabilities"`
	}{Capabilities: inner})
}
