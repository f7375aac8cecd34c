package domain

import "errors"

// ErrNoDataArray is reported when the source payload has no data array and no message of its own.
var ErrNoDataArray = errors.New("No data array returned") //nolint:staticcheck // text is part of the response contract
