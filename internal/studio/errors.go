package studio

import "errors"

// ErrNoUsableContent means aggregation produced no text from any source. It
// is the only pre-upload condition that fails a generation attempt; model,
// parse, and rendering failures all degrade into fallback output instead.
var ErrNoUsableContent = errors.New("no usable content in any source")
