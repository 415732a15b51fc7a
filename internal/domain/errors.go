package domain

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Storage errors
var (
	// ErrNotFound indicates the requested path does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates the destination already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")

	// ErrChecksumMismatch indicates a copied file differs from its source
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Pipeline errors
var (
	// ErrUnsupportedOperation indicates an operation was routed to an
	// adapter that does not know its kind. This is a programming error.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidOperation indicates malformed operation parameters
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidPattern indicates an allow/deny pattern failed to compile
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNameCollision indicates two files would be renamed to the same path
	ErrNameCollision = errors.New("name collision")

	// ErrUnsupportedBitDepth indicates a bit depth outside 8/16/24/32
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

	// ErrUnknownPlatform indicates an export preset that does not exist
	ErrUnknownPlatform = errors.New("unknown export platform")

	// ErrIndexOutOfRange indicates a file index outside the current selection
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrLogFileNotSet indicates Log was called before a log file was configured
	ErrLogFileNotSet = errors.New("log file not set")

	// ErrDirectoryLocked indicates another process holds the directory lock
	ErrDirectoryLocked = errors.New("directory locked")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)

// Category errors. An *OpError matches the sentinel of its Kind with errors.Is.
var (
	ErrFilesystem = errors.New("filesystem failure")
	ErrFilename   = errors.New("filename failure")
	ErrAudioFX    = errors.New("audio effect failure")
	ErrConvert    = errors.New("conversion failure")
	ErrExport     = errors.New("export failure")
)

// ErrorKind classifies a failed directory operation.
type ErrorKind int

const (
	KindFilesystem ErrorKind = iota
	KindFilename
	KindAudioFX
	KindConvert
	KindExport
)

func (k ErrorKind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindFilename:
		return "filename"
	case KindAudioFX:
		return "audio_fx"
	case KindConvert:
		return "convert"
	case KindExport:
		return "export"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindFilesystem:
		return ErrFilesystem
	case KindFilename:
		return ErrFilename
	case KindAudioFX:
		return ErrAudioFX
	case KindConvert:
		return ErrConvert
	case KindExport:
		return ErrExport
	default:
		return nil
	}
}

// OpError is returned by every public directory operation.
type OpError struct {
	Kind   ErrorKind
	Action string
	Err    error
}

// NewOpError wraps err as a failure of action. A nil err yields nil.
func NewOpError(kind ErrorKind, action string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Kind: kind, Action: action, Err: err}
}

// Error renders "<Action> failure: <cause>".
func (e *OpError) Error() string {
	return fmt.Sprintf("%s failure: %v", capitalize(e.Action), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the category sentinel for e.Kind.
func (e *OpError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// MapError converts OS errors to domain errors, keeping the original
// error in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrNotDirectory):
		return err
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case os.IsExist(err):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && strings.Contains(pathErr.Err.Error(), "not a directory") {
		return fmt.Errorf("%w: %w", ErrNotDirectory, err)
	}

	return err
}
