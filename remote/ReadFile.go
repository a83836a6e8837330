package remote

import (
	"bytes"
	"context"
	"unicode/utf8"
)

// ReadFile returns the full content of remotePath. The content must be valid
// UTF-8.
//
// The download command double-quotes remotePath, where the remote shell still
// expands "$" and backquotes, so paths containing them are refused with
// ErrUnsafeRemotePath.
func (s *Session) ReadFile(ctx context.Context, remotePath string) (string, error) {
	if err := s.usable(); err != nil {
		return "", &Error{Kind: ErrOpenRemoteFile, Path: remotePath, Err: err}
	}
	if unsafeForDoubleQuotes(remotePath) {
		return "", &Error{Kind: ErrOpenRemoteFile, Path: remotePath, Err: ErrUnsafeRemotePath}
	}
	client, err := s.scpClient()
	if err != nil {
		return "", &Error{Kind: ErrOpenRemoteFile, Path: remotePath, Err: err}
	}

	var (
		buf   bytes.Buffer
		watch streamWatch
	)
	if err := client.CopyFromRemotePassThru(ctx, &buf, remotePath, watch.passThru); err != nil {
		if watch.started.Load() {
			return "", &Error{Kind: ErrReadRemoteFile, Path: remotePath, Err: err}
		}
		return "", &Error{Kind: ErrOpenRemoteFile, Path: remotePath, Err: err}
	}
	if !utf8.Valid(buf.Bytes()) {
		return "", &Error{Kind: ErrReadRemoteFile, Path: remotePath, Err: ErrInvalidUTF8}
	}
	s.log.V(1).Info("read remote file", "path", remotePath, "bytes", buf.Len())
	return buf.String(), nil
}
