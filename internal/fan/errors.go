package fan

import "errors"

// ErrInvalidSetup is returned by Setup when a required parameter is missing.
var ErrInvalidSetup = errors.New("fan: invalid setup parameters")
