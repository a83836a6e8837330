package remote

import (
	"errors"
	"fmt"
)

// Stage sentinels. Every error returned by this package is a *Error whose
// Kind is one of these, so callers can branch with errors.Is.
var (
	ErrConnect          = errors.New("tcp stream connection")
	ErrSessionNew       = errors.New("session initializing")
	ErrHandshake        = errors.New("session handshake")
	ErrAuth             = errors.New("session auth")
	ErrCreateRemoteFile = errors.New("create remote file")
	ErrWriteRemoteFile  = errors.New("write remote file")
	ErrOpenRemoteFile   = errors.New("open remote file")
	ErrReadRemoteFile   = errors.New("read remote file")
	ErrExecCommands     = errors.New("execute commands")
)

var (
	// ErrNotAuthenticated is the cause when an operation is attempted on a
	// session that was closed or whose transport has gone away.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrInvalidUTF8 is the cause when downloaded content is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("content is not valid UTF-8")
	// ErrUnsafeRemotePath is the cause when a path to download contains "$"
	// or a backquote, which the remote shell would expand.
	ErrUnsafeRemotePath = errors.New("remote path contains shell expansion characters")
)

// Error describes a failed stage together with the context needed to
// diagnose it. Fields that do not apply to the stage are left empty.
type Error struct {
	Kind    error
	Addr    string
	User    string
	KeyPath string
	Path    string
	Size    int
	Command string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrConnect:
		msg = fmt.Sprintf("tcp stream connection to %s error", e.Addr)
	case ErrSessionNew:
		msg = "session initializing error"
	case ErrHandshake:
		msg = fmt.Sprintf("session handshake with %s error", e.Addr)
	case ErrAuth:
		msg = fmt.Sprintf("session auth user %s with private key file %s error", e.User, e.KeyPath)
	case ErrCreateRemoteFile:
		msg = fmt.Sprintf("create remote file %s error", e.Path)
	case ErrWriteRemoteFile:
		msg = fmt.Sprintf("write remote file %s (%d bytes) error", e.Path, e.Size)
	case ErrOpenRemoteFile:
		msg = fmt.Sprintf("open remote file %s error", e.Path)
	case ErrReadRemoteFile:
		msg = fmt.Sprintf("read remote file %s error", e.Path)
	case ErrExecCommands:
		msg = fmt.Sprintf("execute commands %q error", e.Command)
	default:
		msg = "ssh error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the stage sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
