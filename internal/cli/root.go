// Package cli defines the hsck command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/hsck/internal/app"
	"github.com/nhle/hsck/internal/config"
	"github.com/nhle/hsck/internal/credential"
	"github.com/nhle/hsck/internal/theme"
)

// Environment variables read by the root command.
const (
	EnvConfigDir = "CONFIG_DIR"
	EnvAppEnv    = "APP_ENV"
	EnvMode      = "HSCK_MODE"
)

// DefaultDotEnv is the file loaded into the environment before flags are
// resolved. Variables already set are left untouched.
const DefaultDotEnv = ".env"

// CredentialStore keeps passwords out of the configuration documents.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Config wires the command to its environment.
type Config struct {
	OutputWriter io.Writer
	ErrorWriter  io.Writer
	DotEnvPath   string
	Store        CredentialStore
	// Deps are passed to every run; Out, Secrets and Confirm are filled in
	// when unset.
	Deps app.Deps
}

// DefaultConfig returns the production wiring.
func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		ErrorWriter:  os.Stderr,
		DotEnvPath:   DefaultDotEnv,
		Store:        credential.NewStore(),
	}
}

// NewRootCommand builds the hsck command tree.
func NewRootCommand(cfg Config) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "hsck",
		Short: "Homework submission checker",
		Long: "hsck compares a directory of submissions against the configured roster,\n" +
			"lists the students who have not submitted and can remind them by mail.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadDotEnv(cfg.DotEnvPath)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd, v, cfg)
		},
	}
	if cfg.OutputWriter != nil {
		root.SetOut(cfg.OutputWriter)
	}
	if cfg.ErrorWriter != nil {
		root.SetErr(cfg.ErrorWriter)
	}

	persistent := root.PersistentFlags()
	persistent.StringP("config", "c", config.DefaultDir, "configuration directory (env "+EnvConfigDir+")")
	persistent.StringP("env", "e", config.DefaultEnvironment, "environment name, e.g. dev or prod (env "+EnvAppEnv+")")
	persistent.String("mode", "", "run mode: dev or release (env "+EnvMode+")")
	for _, name := range []string{"config", "env", "mode"} {
		_ = v.BindPFlag(name, persistent.Lookup(name))
	}

	flags := root.Flags()
	flags.BoolP("send", "s", false, "send reminder mails (requires --name)")
	flags.StringP("name", "n", "", "homework name used in the reminder (requires --send)")
	flags.BoolP("resv", "r", false, "receive submissions by mail (not implemented)")
	flags.StringP("dir", "d", "", "directory to check for submissions (default: current directory)")
	flags.String("dry-run", "", "write reminder mails as .eml files into this directory instead of sending")
	flags.Bool("confirm", false, "ask for confirmation before sending")
	root.MarkFlagsRequiredTogether("send", "name")
	for _, name := range []string{"send", "name", "resv", "dir", "dry-run", "confirm"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	_ = v.BindEnv("config", EnvConfigDir)
	_ = v.BindEnv("env", EnvAppEnv)
	_ = v.BindEnv("mode", EnvMode)

	root.AddCommand(
		NewCredentialCommand(cfg.Store),
		NewVerifyCommand(v, cfg.Store),
		NewVersionCommand(),
	)
	return root
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func runCheck(ctx context.Context, cmd *cobra.Command, v *viper.Viper, cfg Config) error {
	opts := app.Options{
		Send:        v.GetBool("send"),
		Homework:    v.GetString("name"),
		Receive:     v.GetBool("resv"),
		ConfigDir:   v.GetString("config"),
		Environment: v.GetString("env"),
		CheckDir:    v.GetString("dir"),
		Mode:        v.GetString("mode"),
		DryRunDir:   v.GetString("dry-run"),
		Confirm:     v.GetBool("confirm"),
	}

	deps := cfg.Deps
	if deps.Out == nil {
		deps.Out = cmd.OutOrStdout()
	}
	if deps.Secrets == nil && cfg.Store != nil {
		deps.Secrets = cfg.Store
	}
	if deps.Confirm == nil {
		deps.Confirm = promptConfirm
	}

	return app.New(opts, deps).Run(ctx)
}

// Execute runs the command tree with args and returns the process exit
// code. Errors are printed to the error writer, with a remediation hint
// for configuration problems.
func Execute(ctx context.Context, cfg Config, args []string) int {
	root := NewRootCommand(cfg)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, theme.ErrorStyle.Render("error: "+err.Error()))

	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		hint := fmt.Sprintf("请确保配置文件存在于 %s 目录中 / please make sure the configuration files exist in %s", cfgErr.Dir, cfgErr.Dir)
		_, _ = fmt.Fprintln(w, theme.HintStyle.Render(hint))
	}
}
