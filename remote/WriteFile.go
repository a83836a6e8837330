package remote

import (
	"context"
)

// WriteFile stores content at remotePath with mode 0644, replacing any
// existing file. It returns once the remote end has acknowledged the data and
// the channel is closed. remotePath is single-quoted for the remote shell, so
// it is used literally.
//
// A failure before the remote end accepted the file (the path could not be
// created) is ErrCreateRemoteFile; a failure afterwards is ErrWriteRemoteFile.
func (s *Session) WriteFile(ctx context.Context, content, remotePath string) error {
	if err := s.usable(); err != nil {
		return &Error{Kind: ErrCreateRemoteFile, Path: remotePath, Err: err}
	}
	accepted, err := s.putFile(ctx, content, remotePath)
	if err != nil {
		if accepted {
			return &Error{Kind: ErrWriteRemoteFile, Path: remotePath, Size: len(content), Err: err}
		}
		return &Error{Kind: ErrCreateRemoteFile, Path: remotePath, Err: err}
	}
	s.log.V(1).Info("wrote remote file", "path", remotePath, "bytes", len(content))
	return nil
}
