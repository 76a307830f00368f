package dispatch

import "errors"

// ErrDispatcherClosed is returned by Enqueue and Recover once Shutdown has begun.
var ErrDispatcherClosed = errors.New("dispatcher is shut down")
