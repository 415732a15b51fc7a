//go:build !unix

package filesystem

import (
	"errors"
	"os"
	"syscall"
)

// ERROR_NOT_SAME_DEVICE
const errNotSameDevice = syscall.Errno(17)

func isCrossDevice(err error) bool {
	var le *os.LinkError
	return errors.As(err, &le) && errors.Is(le.Err, errNotSameDevice)
}
