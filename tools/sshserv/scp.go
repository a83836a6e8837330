package sshserv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"
)

// parseSCP recognizes "scp [-flags] path". mode is 't' for sink (upload) and
// 'f' for source (download). The path may be double quoted Go/C style or
// single quoted the way a POSIX shell reads it.
func parseSCP(command string) (mode byte, path string, ok bool) {
	bin, rest, _ := strings.Cut(strings.TrimSpace(command), " ")
	if filepath.Base(bin) != "scp" {
		return 0, "", false
	}
	rest = strings.TrimSpace(rest)
	for strings.HasPrefix(rest, "-") {
		var flag string
		flag, rest, _ = strings.Cut(rest, " ")
		switch {
		case strings.ContainsRune(flag, 't'):
			mode = 't'
		case strings.ContainsRune(flag, 'f'):
			mode = 'f'
		}
		rest = strings.TrimSpace(rest)
	}
	switch {
	case strings.HasPrefix(rest, `"`):
		p, err := strconv.Unquote(rest)
		if err != nil {
			return 0, "", false
		}
		rest = p
	case strings.HasPrefix(rest, "'"):
		p, ok := unquoteSingle(rest)
		if !ok {
			return 0, "", false
		}
		rest = p
	}
	if mode == 0 || rest == "" {
		return 0, "", false
	}
	return mode, rest, true
}

// unquoteSingle undoes POSIX single quoting, including the '\'' form used
// for embedded quotes.
func unquoteSingle(s string) (string, bool) {
	var b strings.Builder
	for len(s) > 0 {
		switch {
		case s[0] == '\'':
			end := strings.IndexByte(s[1:], '\'')
			if end < 0 {
				return "", false
			}
			b.WriteString(s[1 : 1+end])
			s = s[2+end:]
		case strings.HasPrefix(s, `\'`):
			b.WriteByte('\'')
			s = s[2:]
		default:
			return "", false
		}
	}
	return b.String(), true
}

func ack(w io.Writer) error {
	_, err := w.Write([]byte{0})
	return err
}

func readAck(r *bufio.Reader) bool {
	b, err := r.ReadByte()
	return err == nil && b == 0
}

// scpFail sends an SCP error record, which the client surfaces as its error.
func scpFail(ch ssh.Channel, msg string) {
	_, _ = ch.Write(append([]byte{1}, []byte(msg+"\n")...))
	_, _ = fmt.Fprintln(ch.Stderr(), msg)
}

func reason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

func parseCopyHeader(line string) (os.FileMode, int64, string, error) {
	fields := strings.SplitN(strings.TrimSuffix(line[1:], "\n"), " ", 3)
	if len(fields) != 3 {
		return 0, 0, "", fmt.Errorf("scp: protocol error: bad header %q", line)
	}
	perm, err := strconv.ParseUint(fields[0], 8, 32)
	if err != nil {
		return 0, 0, "", fmt.Errorf("scp: protocol error: bad mode %q", fields[0])
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		return 0, 0, "", fmt.Errorf("scp: protocol error: bad size %q", fields[1])
	}
	return os.FileMode(perm).Perm(), size, fields[2], nil
}

// scpSink receives files into target, which is either the destination file
// or an existing directory.
func scpSink(ch ssh.Channel, target string) uint32 {
	br := bufio.NewReader(ch)
	if err := ack(ch); err != nil {
		return 1
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			// sender closed its side: transfer complete
			return 0
		}
		switch line[0] {
		case 'C':
			perm, size, name, err := parseCopyHeader(line)
			if err != nil {
				scpFail(ch, err.Error())
				return 1
			}
			dst := target
			if fi, err := os.Stat(target); err == nil && fi.IsDir() {
				dst = filepath.Join(target, name)
			}
			f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
			if err != nil {
				scpFail(ch, fmt.Sprintf("scp: %s: %s", dst, reason(err)))
				return 1
			}
			if err := ack(ch); err != nil {
				_ = f.Close()
				return 1
			}
			_, err = io.CopyN(f, br, size)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				scpFail(ch, fmt.Sprintf("scp: %s: %s", dst, reason(err)))
				return 1
			}
			if !readAck(br) {
				return 1
			}
			_ = os.Chmod(dst, perm)
			if err := ack(ch); err != nil {
				return 1
			}
		case 'T', 'E':
			if err := ack(ch); err != nil {
				return 1
			}
		default:
			scpFail(ch, fmt.Sprintf("scp: protocol error: unexpected record %q", line))
			return 1
		}
	}
}

// scpSource sends the regular file at path.
func scpSource(ch ssh.Channel, path string) uint32 {
	br := bufio.NewReader(ch)
	if !readAck(br) {
		return 1
	}
	fi, err := os.Stat(path)
	if err != nil {
		scpFail(ch, fmt.Sprintf("scp: %s: %s", path, reason(err)))
		return 1
	}
	if !fi.Mode().IsRegular() {
		scpFail(ch, fmt.Sprintf("scp: %s: not a regular file", path))
		return 1
	}
	data, err := os.ReadFile(path)
	if err != nil {
		scpFail(ch, fmt.Sprintf("scp: %s: %s", path, reason(err)))
		return 1
	}
	if _, err := fmt.Fprintf(ch, "C%04o %d %s\n", fi.Mode().Perm(), len(data), filepath.Base(path)); err != nil {
		return 1
	}
	if !readAck(br) {
		return 1
	}
	if _, err := ch.Write(append(data, 0)); err != nil {
		return 1
	}
	readAck(br)
	return 0
}
