package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"
)

// installCmd appends a public key to the remote user's authorized_keys. The
// key is uploaded to a temporary file and merged in by a command batch, so an
// already present key is not duplicated.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install an SSH public key into the remote user's authorized_keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgInstallPubKeyPath == "" {
			return errors.New("--install-pubkey is required (path to SSH public key)")
		}
		if cfgManifest != "" {
			mf, err := loadManifest(cfgManifest)
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}
			applyManifestDefaults(mf, cmd.Flags().Changed("port") || viper.IsSet("port"))
		}

		// Read public key file
		pubBytes, err := os.ReadFile(cfgInstallPubKeyPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("public key file not found: %s", cfgInstallPubKeyPath)
			}
			return fmt.Errorf("read public key: %w", err)
		}
		if _, _, _, _, err := ssh.ParseAuthorizedKey(pubBytes); err != nil {
			return fmt.Errorf("parse public key %s: %w", cfgInstallPubKeyPath, err)
		}
		pubKey := strings.TrimSpace(string(pubBytes))

		sess, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		tmp := "/tmp/minimalist-install-" + uuid.NewString() + ".pub"
		if err := sess.WriteFile(cmd.Context(), pubKey+"\n", tmp); err != nil {
			return err
		}
		res, err := sess.RunCommandsWithStatus(cmd.Context(), installCommands(tmp, cfgAuthorizedKeys))
		if err != nil {
			return err
		}
		if res.ExitStatus != 0 {
			if res.Output != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Output: %s\n", res.Output)
			}
			return fmt.Errorf("install exit code %d", res.ExitStatus)
		}
		logger.Info("public key installed", "user", cfgUser, "host", cfgHost, "authorizedKeys", cfgAuthorizedKeys)
		return nil
	},
}

// installCommands merges the key in tmp into authorizedKeys (relative to the
// remote home directory) and removes tmp. The batch exits with the merge
// status.
func installCommands(tmp, authorizedKeys string) []string {
	auth := `"$HOME"/` + shellQuote(strings.TrimPrefix(authorizedKeys, "/"))
	if strings.HasPrefix(authorizedKeys, "/") {
		auth = shellQuote(authorizedKeys)
	}
	t := shellQuote(tmp)
	return []string{
		"umask 077",
		fmt.Sprintf(`mkdir -p "$(dirname %s)"`, auth),
		"touch " + auth,
		fmt.Sprintf("{ grep -qxF -f %s %s || cat %s >> %s; }", t, auth, t, auth),
		"rc=$?",
		"chmod 600 " + auth,
		"rm -f " + t,
		"exit $rc",
	}
}

func init() {
	installCmd.Flags().StringVar(&cfgInstallPubKeyPath, "install-pubkey", "", "Path to SSH public key to install")
	installCmd.Flags().StringVar(&cfgAuthorizedKeys, "authorized-keys", ".ssh/authorized_keys", "authorized_keys path, relative to the remote home unless absolute")
}
