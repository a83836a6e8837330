package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync/atomic"

	scp "github.com/bramvdbogaerde/go-scp"
)

// RemoteFileMode is the permission every uploaded file is created with.
const RemoteFileMode os.FileMode = 0o644

// scpClient builds an SCP client riding on the session's connection. The
// returned client must not be closed since that would close the session.
func (s *Session) scpClient() (scp.Client, error) {
	c, err := scp.NewClientBySSH(s.client)
	if err != nil {
		return scp.Client{}, err
	}
	c.Timeout = s.transferTimeout
	c.RemoteBinary = s.scpBinary
	return c, nil
}

// streamWatch records whether file content started to flow, which separates
// "the remote end refused the file" from "the transfer broke midway".
type streamWatch struct {
	started atomic.Bool
}

func (w *streamWatch) passThru(r io.Reader, _ int64) io.Reader {
	return &watchReader{r: r, w: w}
}

type watchReader struct {
	r io.Reader
	w *streamWatch
}

func (wr *watchReader) Read(b []byte) (int, error) {
	wr.w.started.Store(true)
	return wr.r.Read(b)
}

func permissionString(m os.FileMode) string {
	return fmt.Sprintf("%04o", m.Perm())
}

// quoteRemotePath single-quotes p for the remote shell so that no part of it
// is expanded.
func quoteRemotePath(p string) string {
	return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
}

// unsafeForDoubleQuotes reports whether p contains characters a shell still
// expands inside double quotes.
func unsafeForDoubleQuotes(p string) bool {
	return strings.ContainsAny(p, "$`")
}

// readSinkAck reads one SCP response: 0 is success, 1 and 2 carry a message
// up to the end of the line.
func readSinkAck(r *bufio.Reader) error {
	code, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("scp: reading response: %w", err)
	}
	if code == 0 {
		return nil
	}
	msg, _ := r.ReadString('\n')
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = fmt.Sprintf("remote error code %d", code)
	}
	return errors.New(msg)
}

// putFile uploads content to remotePath with the scp sink protocol. accepted
// reports whether the sink acknowledged the file header, i.e. the remote file
// was opened for writing.
func (s *Session) putFile(ctx context.Context, content, remotePath string) (accepted bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.transferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.transferTimeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return false, err
	}
	defer func() { _ = sess.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = sess.Close() })
	defer stop()
	defer func() {
		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
	}()

	stdin, err := sess.StdinPipe()
	if err != nil {
		return false, err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		return false, err
	}
	if err := sess.Start(s.scpBinary + " -qt " + quoteRemotePath(remotePath)); err != nil {
		return false, err
	}
	r := bufio.NewReader(stdout)

	// the sink announces it is ready before anything is sent
	if err := readSinkAck(r); err != nil {
		return false, err
	}
	header := fmt.Sprintf("C%s %d %s\n", permissionString(RemoteFileMode), len(content), path.Base(remotePath))
	if _, err := io.WriteString(stdin, header); err != nil {
		return false, err
	}
	if err := readSinkAck(r); err != nil {
		return false, err
	}

	if _, err := io.WriteString(stdin, content); err != nil {
		return true, err
	}
	if _, err := stdin.Write([]byte{0}); err != nil {
		return true, err
	}
	if err := readSinkAck(r); err != nil {
		return true, err
	}
	_ = stdin.Close()
	if err := sess.Wait(); err != nil {
		return true, err
	}
	return true, nil
}
