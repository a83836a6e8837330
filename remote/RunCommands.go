package remote

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/ssh"
)

// CommandResult is the outcome of one command batch.
type CommandResult struct {
	// Command is the joined command line that was executed.
	Command string
	// Output is stdout and stderr interleaved as the remote produced them.
	Output string
	// ExitStatus is the remote exit status, or -1 when the remote closed the
	// channel without reporting one.
	ExitStatus int
}

// joinCommands builds the single command line sent to the remote shell. An
// empty batch yields the empty command.
func joinCommands(commands []string) string {
	return strings.Join(commands, ";")
}

// RunCommands executes commands joined with ";" in one exec channel and
// returns their combined output. A non-zero exit status of the batch is not
// an error; use RunCommandsWithStatus to inspect it.
func (s *Session) RunCommands(ctx context.Context, commands []string) (string, error) {
	res, err := s.RunCommandsWithStatus(ctx, commands)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// RunCommandsWithStatus is RunCommands but also reports the exit status of
// the batch, which is the status of its last command.
func (s *Session) RunCommandsWithStatus(ctx context.Context, commands []string) (*CommandResult, error) {
	line := joinCommands(commands)
	if err := s.usable(); err != nil {
		return nil, &Error{Kind: ErrExecCommands, Command: line, Err: err}
	}
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, &Error{Kind: ErrExecCommands, Command: line, Err: err}
	}
	defer func() { _ = sess.Close() }()

	type result struct {
		out []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		b, err := sess.CombinedOutput(line)
		ch <- result{b, err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		_ = sess.Close()
		return nil, &Error{Kind: ErrExecCommands, Command: line, Err: ctx.Err()}
	}

	res := &CommandResult{Command: line, Output: string(r.out)}
	var (
		exitErr    *ssh.ExitError
		missingErr *ssh.ExitMissingError
	)
	switch {
	case r.err == nil:
	case errors.As(r.err, &exitErr):
		res.ExitStatus = exitErr.ExitStatus()
	case errors.As(r.err, &missingErr):
		res.ExitStatus = -1
	default:
		return nil, &Error{Kind: ErrExecCommands, Command: line, Err: r.err}
	}
	s.log.V(1).Info("ran commands", "command", line, "exitStatus", res.ExitStatus)
	return res, nil
}
