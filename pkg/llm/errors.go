package llm

import (
	stderrors "errors"
	"fmt"
)

// UpstreamError reports a failed call to the model-serving API (network, auth, quota,
// malformed response). It is never retried by this module.
type UpstreamError struct {
	Provider string
	Model    string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "<nil>"
	}
	where := e.Provider
	if e.Model != "" {
		where = fmt.Sprintf("%s/%s", e.Provider, e.Model)
	}
	if where == "" {
		where = "model"
	}
	if e.Err == nil {
		return fmt.Sprintf("upstream %s call failed", where)
	}
	return fmt.Sprintf("upstream %s call failed: %v", where, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewUpstreamError wraps err, returning it unchanged if it already is an UpstreamError.
func NewUpstreamError(provider, model string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if stderrors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Provider: provider, Model: model, Err: err}
}

// IsUpstream reports whether err (or anything it wraps) is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return stderrors.As(err, &ue)
}
