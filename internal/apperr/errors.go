package apperr

import "errors"

var (
	ErrConfiguration  = errors.New("configuration invalid")
	ErrUpstreamFetch  = errors.New("upstream fetch failed")
	ErrEmptyKnowledge = errors.New("knowledge base is empty")
	ErrModelCall      = errors.New("model call failed")
	ErrEmptyReply     = errors.New("model returned no usable reply")
	ErrSafetyBlocked  = errors.New("reply blocked by safety filter")
)
