package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/hsck/internal/config"
	"github.com/nhle/hsck/internal/mailbox"
	"github.com/nhle/hsck/internal/model"
	"github.com/nhle/hsck/internal/notify"
	"github.com/nhle/hsck/internal/theme"
	"github.com/nhle/hsck/internal/version"
)

// NewVerifyCommand checks that the configured mail accounts accept the
// configured credentials. Nothing is sent or fetched.
func NewVerifyCommand(v *viper.Viper, secrets config.SecretSource) *cobra.Command {
	var skipIMAP bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check SMTP and IMAP connectivity and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := version.Mode()
			if name := v.GetString("mode"); name != "" {
				m, err := model.ParseMode(name)
				if err != nil {
					return err
				}
				mode = m
			}

			opts := []config.Option{config.WithMode(mode)}
			if secrets != nil {
				opts = append(opts, config.WithSecrets(secrets))
			}
			cfg, err := config.Load(v.GetString("env"), v.GetString("config"), opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report := func(name, addr string, err error) {
				if err != nil {
					_, _ = fmt.Fprintln(out, theme.WarnStyle.Render(fmt.Sprintf("✗ %s %s: %v", name, addr, err)))
					return
				}
				_, _ = fmt.Fprintln(out, theme.SuccessStyle.Render(fmt.Sprintf("✓ %s %s", name, addr)))
			}

			var failed []string

			smtpTransport, err := notify.NewSMTPTransport(cfg.SMTP)
			if err == nil {
				err = smtpTransport.Verify(cmd.Context())
				report("SMTP", smtpTransport.Addr(), err)
			} else {
				report("SMTP", cfg.SMTP.Server, err)
			}
			if err != nil {
				failed = append(failed, "SMTP")
			}

			if !skipIMAP {
				imapClient, err := mailbox.NewClient(cfg.IMAP)
				if err == nil {
					err = imapClient.Verify(cmd.Context())
					report("IMAP", imapClient.Addr(), err)
				} else {
					report("IMAP", cfg.IMAP.Server, err)
				}
				if err != nil {
					failed = append(failed, "IMAP")
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("verification failed: %v", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipIMAP, "skip-imap", false, "only check the SMTP account")

	return cmd
}

