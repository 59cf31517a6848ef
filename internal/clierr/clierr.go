// Package clierr is cmd/nova's uniform error payload: a
// code+message+detail shape printed as plain text or JSON depending on
// the composition root's output mode. It is cmd/nova's own stable error
// envelope, never the core's.
package clierr

import "encoding/json"

// Code enumerates cmd/nova's own error identifiers. These are distinct
// from diag.Code: diag.Code names a problem found *in analyzed source*,
// Code names a problem in running the composition root itself.
const (
	ErrWorkspace = "ERR_WORKSPACE"
	ErrConfig    = "ERR_CONFIG"
	ErrWarmstart = "ERR_WARMSTART"
)

// Error is cmd/nova's uniform error payload for both human and JSON
// output.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// JSON renders e as a JSON line for machine-readable output modes.
func (e Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Wrap builds an Error from code/msg, folding inner's message in as
// Detail.
func Wrap(code, msg string, inner error) error {
	return Error{Code: code, Message: msg, Detail: inner.Error()}
}
