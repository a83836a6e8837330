package sshserv

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/crypto/ssh"
)

func (s *Server) handleSession(ch ssh.Channel, in <-chan *ssh.Request) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := false
	for req := range in {
		switch req.Type {
		case "env":
			_ = req.Reply(true, nil)
		case "signal":
			cancel()
			_ = req.Reply(true, nil)
		case "exec":
			if started {
				_ = req.Reply(false, nil)
				continue
			}
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			started = true
			_ = req.Reply(true, nil)
			go func() {
				code := s.exec(ctx, ch, payload.Command)
				finish(ch, code)
			}()
		default:
			_ = req.Reply(false, nil)
		}
	}
	if !started {
		_ = ch.Close()
	}
}

// exec dispatches scp transfers to the in-process implementation and every
// other command to the shell.
func (s *Server) exec(ctx context.Context, ch ssh.Channel, command string) uint32 {
	if mode, path, ok := parseSCP(command); ok {
		switch mode {
		case 't':
			return scpSink(ch, path)
		case 'f':
			return scpSource(ch, path)
		}
	}
	return s.runShell(ctx, ch, command)
}

func (s *Server) runShell(ctx context.Context, ch ssh.Channel, command string) uint32 {
	cmd := exec.CommandContext(ctx, s.shell, "-c", command)
	cmd.Stdout = ch
	cmd.Stderr = ch.Stderr()
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return uint32(code)
		}
		return 255
	}
	_, _ = fmt.Fprintf(ch.Stderr(), "%v\n", err)
	return 127
}

// finish reports the exit status and closes the channel the way OpenSSH does:
// EOF, exit-status, close.
func finish(ch ssh.Channel, code uint32) {
	_ = ch.CloseWrite()
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{code}))
	_ = ch.Close()
}
