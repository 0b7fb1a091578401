package scan

import "errors"

var (
	ErrInvalidRange          = errors.New("invalid nonce range")
	ErrTooManyTrials         = errors.New("too many trials requested")
	ErrEmptySweep            = errors.New("sweep has no configurations")
	ErrTooManyConfigurations = errors.New("too many sweep configurations")
)
