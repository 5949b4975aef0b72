package device

import (
	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrOutOfMemory   = errors.New("device: allocation exceeds available memory")
	ErrInvalidHandle = errors.New("device: invalid or released tensor handle")
	ErrShapeMismatch = errors.New("device: data does not match tensor shape")
	ErrUnsupported   = errors.New("device: storage type not supported")
	ErrUnavailable   = errors.New("device: not available")
	ErrTransfer      = errors.New("device: host to device transfer failed")
)
