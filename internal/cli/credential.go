package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/hsck/internal/credential"
)

// NewCredentialCommand manages mail passwords kept in the system keyring.
func NewCredentialCommand(store CredentialStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage SMTP and IMAP passwords in the system keyring",
	}
	cmd.AddCommand(newCredentialSetCommand(store), newCredentialDeleteCommand(store))
	return cmd
}

func newCredentialSetCommand(store CredentialStore) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set <smtp|imap> <username>",
		Short: "Store the password for a mail account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credentialKey(args[0], args[1])
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no credential store configured")
			}

			var password string
			if fromStdin {
				password, err = readPassword(cmd)
			} else {
				password, err = promptPassword(cmd.Context(), key)
			}
			if err != nil {
				return err
			}

			if err := store.Set(key, password); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from standard input")
	return cmd
}

func newCredentialDeleteCommand(store CredentialStore) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <smtp|imap> <username>",
		Short: "Remove the stored password for a mail account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credentialKey(args[0], args[1])
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no credential store configured")
			}

			if err := store.Delete(key); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			return nil
		},
	}
}

func credentialKey(kind, username string) (string, error) {
	kind = strings.ToLower(kind)
	if kind != credential.KindSMTP && kind != credential.KindIMAP {
		return "", fmt.Errorf("unknown credential kind %q (want %s or %s)", kind, credential.KindSMTP, credential.KindIMAP)
	}
	if strings.TrimSpace(username) == "" {
		return "", errors.New("username is required")
	}
	return credential.Key(kind, username), nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", errors.New("empty password")
	}
	return line, nil
}
