package kubeconfig

import (
	"errors"
	"fmt"
)

// Sentinel errors for the closed set of failures in kubeconfig resolution and
// client construction. Match them with errors.Is.
var (
	// ErrNotFound indicates a selector that is neither a registered name nor
	// an existing file path.
	ErrNotFound = errors.New("kubeconfig not found")

	// ErrFileNotFound indicates a resolved path whose file no longer exists.
	ErrFileNotFound = errors.New("kubeconfig file not found")

	// ErrInvalidContent indicates data that is not a loadable kubeconfig.
	ErrInvalidContent = errors.New("invalid kubeconfig content")

	// ErrStorage indicates the registry could not be read or persisted.
	ErrStorage = errors.New("kubeconfig storage error")

	// ErrClientCreation indicates the cluster client could not be built or
	// could not reach its API server.
	ErrClientCreation = errors.New("failed to create cluster client")

	// ErrIO indicates a filesystem failure outside the registry index.
	ErrIO = errors.New("kubeconfig io error")
)

// ErrorKind enumerates the failure categories
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindFileNotFound
	KindInvalidContent
	KindStorage
	KindClientCreation
	KindIO
)

// String returns the category name
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindFileNotFound:
		return "FileNotFound"
	case KindInvalidContent:
		return "InvalidContent"
	case KindStorage:
		return "StorageError"
	case KindClientCreation:
		return "ClientCreationError"
	case KindIO:
		return "IoError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindFileNotFound:
		return ErrFileNotFound
	case KindInvalidContent:
		return ErrInvalidContent
	case KindStorage:
		return ErrStorage
	case KindClientCreation:
		return ErrClientCreation
	default:
		return ErrIO
	}
}

// Error carries the failure category, the selector or path it concerns, and
// the underlying cause if any.
//
// Is() matches the sentinel for Kind; Unwrap() returns the cause so callers
// can also match underlying errors such as fs.ErrNotExist.
type Error struct {
	Kind    ErrorKind
	Subject string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Subject)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundError reports an unresolvable selector
func NotFoundError(selector string) error {
	return &Error{Kind: KindNotFound, Subject: selector}
}

// FileNotFoundError reports a resolved path that does not exist
func FileNotFoundError(path string) error {
	return &Error{Kind: KindFileNotFound, Subject: path}
}

// InvalidContentError reports data that is not a kubeconfig
func InvalidContentError(subject string, err error) error {
	return &Error{Kind: KindInvalidContent, Subject: subject, Err: err}
}

// StorageError reports a registry failure
func StorageError(err error) error {
	return &Error{Kind: KindStorage, Err: err}
}

// ClientCreationError reports a client construction failure for selector
func ClientCreationError(selector string, err error) error {
	return &Error{Kind: KindClientCreation, Subject: selector, Err: err}
}

// IOError reports a filesystem failure on path
func IOError(path string, err error) error {
	return &Error{Kind: KindIO, Subject: path, Err: err}
}

// KindOf returns the category of err and whether err belongs to the taxonomy
func KindOf(err error) (ErrorKind, bool) {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind, true
	}
	return 0, false
}
