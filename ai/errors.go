package ai

import "errors"

// ErrModelUnavailable indicates the backing model service cannot be reached
// or does not serve the configured model. The operation may succeed later
// without any change to the input.
var ErrModelUnavailable = errors.New("model unavailable")
