package coordinator

import "errors"

// ErrNotReady is returned by FirstRefresh when the initial data could not be
// fetched. Setup should be retried later.
var ErrNotReady = errors.New("coordinator: not ready")
