package cmd

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/rogerwq/minimalist/remote"
)

// writeTemp creates a temp file with content and returns its path.
func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// writeKey writes a fresh unencrypted ed25519 private key and returns its
// path and public half.
func writeKey(t *testing.T, dir string) (string, ssh.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	p := writeTemp(t, dir, "id_ed25519", string(pem.EncodeToMemory(block)))
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return p, sshPub
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// resetConfig clears global configuration so tests don't leak state
func resetConfig() {
	viper.Reset()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range boundFlags {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	resetFlags(rootCmd)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)
	cfgConfigFile = ""
	cfgHost = ""
	cfgPort = 22
	cfgUser = ""
	cfgKeyPath = ""
	cfgHostKeyPath = ""
	cfgStrictHost = true
	cfgTimeout = 0
	cfgConnTimeout = 0
	cfgTransferTimeout = 0
	cfgManifest = ""
	cfgOutPath = ""
	cfgEC2InstanceID = ""
	cfgEC2Region = ""
	cfgEC2Zone = ""
	cfgFormat = "yaml"
	cfgNoop = false
	cfgPutFrom = ""
	cfgPutContent = ""
	cfgExitStatus = false
	cfgInstallPubKeyPath = ""
	cfgAuthorizedKeys = ".ssh/authorized_keys"
	errConfig = nil
	logger = logr.Discard()
}

// fakeSession records what the subcommands ask of a remote session.
type fakeSession struct {
	files     map[string]string
	commands  [][]string
	deadlines []bool
	results   map[string]*remote.CommandResult
	fallback  *remote.CommandResult
	runErrs   []error
	writeErr  error
	closed    int
}

func newFakeSession() *fakeSession {
	return &fakeSession{files: map[string]string{}, results: map[string]*remote.CommandResult{}}
}

func (f *fakeSession) WriteFile(_ context.Context, content, remotePath string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.files[remotePath] = content
	return nil
}

func (f *fakeSession) ReadFile(_ context.Context, remotePath string) (string, error) {
	c, ok := f.files[remotePath]
	if !ok {
		return "", &remote.Error{Kind: remote.ErrOpenRemoteFile, Path: remotePath, Err: errors.New("scp: No such file or directory")}
	}
	return c, nil
}

func (f *fakeSession) RunCommands(ctx context.Context, commands []string) (string, error) {
	res, err := f.RunCommandsWithStatus(ctx, commands)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

func (f *fakeSession) RunCommandsWithStatus(ctx context.Context, commands []string) (*remote.CommandResult, error) {
	f.commands = append(f.commands, commands)
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)
	if len(f.runErrs) > 0 {
		err := f.runErrs[0]
		f.runErrs = f.runErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	line := strings.Join(commands, ";")
	if r, ok := f.results[line]; ok {
		return r, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return &remote.CommandResult{Command: line, Output: "ok\n"}, nil
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

type establishCall struct {
	ip      net.IP
	port    uint16
	user    string
	keyPath string
	opts    int
}

// stubEstablish hands out the given sessions in order, one per connect.
func stubEstablish(t *testing.T, sessions ...*fakeSession) *[]establishCall {
	t.Helper()
	orig := establishFunc
	t.Cleanup(func() { establishFunc = orig })
	calls := &[]establishCall{}
	establishFunc = func(_ context.Context, ip net.IP, port uint16, user, keyPath string, opts ...remote.Option) (remoteSession, error) {
		*calls = append(*calls, establishCall{ip: ip, port: port, user: user, keyPath: keyPath, opts: len(opts)})
		if len(*calls) > len(sessions) {
			return nil, errors.New("unexpected connect")
		}
		return sessions[len(*calls)-1], nil
	}
	return calls
}

// runCLI executes the root command with args and captures its output.
func runCLI(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func targetArgs(args ...string) []string {
	return append(args, "--host", "127.0.0.1", "--user", "tester", "--key", "/keys/id")
}

// TestPut_Content verifies that --content is written to the remote path over
// an established session which is then closed.
func TestPut_Content(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	calls := stubEstablish(t, fs)

	_, _, err := runCLI(targetArgs("put", "/srv/app/motd", "--content", "hello\n")...)
	require.NoError(t, err)
	require.Equal(t, "hello\n", fs.files["/srv/app/motd"])
	require.Equal(t, 1, fs.closed)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	require.Equal(t, "127.0.0.1", c.ip.String())
	require.EqualValues(t, 22, c.port)
	require.Equal(t, "tester", c.user)
	require.Equal(t, "/keys/id", c.keyPath)
}

func TestPut_EmptyContent(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	stubEstablish(t, fs)

	_, _, err := runCLI(targetArgs("put", "/tmp/empty", "--content", "")...)
	require.NoError(t, err)
	v, ok := fs.files["/tmp/empty"]
	require.True(t, ok)
	require.Equal(t, "", v)
}

func TestPut_FromFileAndStdin(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	stubEstablish(t, fs, fs)
	src := writeTemp(t, t.TempDir(), "local.txt", "from file ✓")

	_, _, err := runCLI(targetArgs("put", "/tmp/a", "--from", src)...)
	require.NoError(t, err)
	require.Equal(t, "from file ✓", fs.files["/tmp/a"])

	resetFlags(rootCmd)
	rootCmd.SetIn(strings.NewReader("from stdin"))
	_, _, err = runCLI(targetArgs("put", "/tmp/b")...)
	require.NoError(t, err)
	require.Equal(t, "from stdin", fs.files["/tmp/b"])
}

func TestPut_FromAndContentExclusive(t *testing.T) {
	resetConfig()
	calls := stubEstablish(t)

	_, _, err := runCLI(targetArgs("put", "/tmp/a", "--from", "x", "--content", "y")...)
	require.Error(t, err)
	require.Empty(t, *calls)
}

// TestPut_WriteErrorKeepsStage verifies that a library failure keeps its
// stage sentinel when surfaced by the CLI.
func TestPut_WriteErrorKeepsStage(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	fs.writeErr = &remote.Error{Kind: remote.ErrCreateRemoteFile, Path: "/missing/dir/f", Err: errors.New("scp: No such file or directory")}
	stubEstablish(t, fs)

	_, _, err := runCLI(targetArgs("put", "/missing/dir/f", "--content", "x")...)
	require.ErrorIs(t, err, remote.ErrCreateRemoteFile)
	require.Contains(t, err.Error(), "create remote file /missing/dir/f error")
	require.Equal(t, 1, fs.closed)
}

func TestGet_StdoutAndOutFile(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	fs.files["/etc/motd"] = "welcome ✓\n"
	stubEstablish(t, fs, fs)

	out, _, err := runCLI(targetArgs("get", "/etc/motd")...)
	require.NoError(t, err)
	require.Equal(t, "welcome ✓\n", out)

	resetFlags(rootCmd)
	dst := filepath.Join(t.TempDir(), "nested", "motd")
	out, _, err = runCLI(targetArgs("get", "/etc/motd", "--out", dst)...)
	require.NoError(t, err)
	require.Empty(t, out)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "welcome ✓\n", string(b))
}

func TestGet_Missing(t *testing.T) {
	resetConfig()
	stubEstablish(t, newFakeSession())

	_, _, err := runCLI(targetArgs("get", "/nope")...)
	require.ErrorIs(t, err, remote.ErrOpenRemoteFile)
}

// TestExec_PrintsOutput verifies that each argument is one command of the
// batch and the combined output goes to stdout.
func TestExec_PrintsOutput(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	fs.results["echo a;echo b"] = &remote.CommandResult{Command: "echo a;echo b", Output: "a\nb\n"}
	stubEstablish(t, fs)

	out, _, err := runCLI("exec", "--host", "127.0.0.1", "--user", "tester", "--key", "/keys/id", "--", "echo a", "echo b")
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", out)
	require.Equal(t, [][]string{{"echo a", "echo b"}}, fs.commands)
	require.Equal(t, []bool{false}, fs.deadlines)
}

func TestExec_ExitStatus(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	fs.results["exit 3"] = &remote.CommandResult{Command: "exit 3", ExitStatus: 3}
	stubEstablish(t, fs, fs)

	_, _, err := runCLI(targetArgs("exec", "exit 3")...)
	require.NoError(t, err)

	resetFlags(rootCmd)
	_, _, err = runCLI(targetArgs("exec", "--exit-status", "exit 3")...)
	var es exitStatusError
	require.ErrorAs(t, err, &es)
	require.Equal(t, 3, es.code)
}

func TestExec_CmdTimeoutSetsDeadline(t *testing.T) {
	resetConfig()
	fs := newFakeSession()
	stubEstablish(t, fs)

	_, _, err := runCLI(targetArgs("exec", "--cmd-timeout", "5s", "uptime")...)
	require.NoError(t, err)
	require.Equal(t, []bool{true}, fs.deadlines)
}

func TestConnect_Validation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing host", []string{"exec", "--user", "u", "--key", "k", "ls"}, "--host is required"},
		{"missing user", []string{"exec", "--host", "127.0.0.1", "--key", "k", "ls"}, "--user is required"},
		{"missing key", []string{"exec", "--host", "127.0.0.1", "--user", "u", "ls"}, "--key is required"},
		{"admin user", []string{"exec", "--host", "127.0.0.1", "--user", "root", "--key", "k", "ls"}, errAdminUser.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resetConfig()
			calls := stubEstablish(t)
			_, _, err := runCLI(tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
			require.Empty(t, *calls)
		})
	}
}

func TestConnect_ResolvesHostName(t *testing.T) {
	resetConfig()
	calls := stubEstablish(t, newFakeSession())

	_, _, err := runCLI("exec", "--host", "localhost", "--user", "tester", "--key", "k", "--port", "2222", "true")
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	require.True(t, (*calls)[0].ip.IsLoopback())
	require.EqualValues(t, 2222, (*calls)[0].port)
}

func TestConnect_HostKeyFile(t *testing.T) {
	resetConfig()
	tmp := t.TempDir()
	_, pub := writeKey(t, tmp)
	good := writeTemp(t, tmp, "host.pub", string(ssh.MarshalAuthorizedKey(pub)))
	bad := writeTemp(t, tmp, "bad.pub", "garbage")
	calls := stubEstablish(t, newFakeSession())

	_, _, err := runCLI(targetArgs("exec", "--host-key", bad, "true")...)
	require.ErrorContains(t, err, "parse host key")
	require.Empty(t, *calls)

	resetFlags(rootCmd)
	_, _, err = runCLI(targetArgs("exec", "--host-key", good, "true")...)
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	require.Equal(t, 5, (*calls)[0].opts)
}

func TestConnect_EstablishErrorWrapped(t *testing.T) {
	resetConfig()
	orig := establishFunc
	t.Cleanup(func() { establishFunc = orig })
	establishFunc = func(_ context.Context, ip net.IP, port uint16, user, keyPath string, _ ...remote.Option) (remoteSession, error) {
		return nil, &remote.Error{Kind: remote.ErrAuth, User: user, KeyPath: keyPath, Err: errors.New("denied")}
	}

	_, _, err := runCLI(targetArgs("exec", "true")...)
	require.ErrorIs(t, err, remote.ErrAuth)
	require.Contains(t, err.Error(), "ssh connection failed: session auth user tester with private key file /keys/id error")
}

type fakePusher struct {
	instanceID, user, zone string
	key                    ssh.PublicKey
	err                    error
}

func (f *fakePusher) Push(_ context.Context, instanceID, osUser string, key ssh.PublicKey, zone string) error {
	f.instanceID, f.user, f.key, f.zone = instanceID, osUser, key, zone
	return f.err
}

// TestConnect_EC2KeyPush verifies that the key's public half is pushed to the
// instance before connecting, and that a push failure stops the connect.
func TestConnect_EC2KeyPush(t *testing.T) {
	resetConfig()
	keyPath, pub := writeKey(t, t.TempDir())
	pusher := &fakePusher{}
	var region string
	origPusher := newKeyPusherFunc
	t.Cleanup(func() { newKeyPusherFunc = origPusher })
	newKeyPusherFunc = func(_ context.Context, r string, _ logr.Logger) (keyPusher, error) {
		region = r
		return pusher, nil
	}
	calls := stubEstablish(t, newFakeSession())

	_, _, err := runCLI("exec", "--host", "127.0.0.1", "--user", "ec2-user", "--key", keyPath,
		"--ec2-instance-id", "i-0abc", "--ec2-region", "eu-west-1", "--ec2-availability-zone", "eu-west-1a", "true")
	require.NoError(t, err)
	require.Equal(t, "i-0abc", pusher.instanceID)
	require.Equal(t, "ec2-user", pusher.user)
	require.Equal(t, "eu-west-1a", pusher.zone)
	require.Equal(t, "eu-west-1", region)
	require.Equal(t, pub.Marshal(), pusher.key.Marshal())
	require.Len(t, *calls, 1)

	resetFlags(rootCmd)
	pusher.err = errors.New("throttled")
	_, _, err = runCLI("exec", "--host", "127.0.0.1", "--user", "ec2-user", "--key", keyPath,
		"--ec2-instance-id", "i-0abc", "true")
	require.ErrorContains(t, err, "throttled")
	require.Len(t, *calls, 1)
}
