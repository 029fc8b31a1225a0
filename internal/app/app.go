// Package app runs one check: load the configuration, find the students
// without a submission, report them and optionally remind them by mail.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/nhle/hsck/internal/config"
	"github.com/nhle/hsck/internal/logging"
	"github.com/nhle/hsck/internal/model"
	"github.com/nhle/hsck/internal/notify"
	"github.com/nhle/hsck/internal/scan"
	"github.com/nhle/hsck/internal/version"
)

// ErrSendNeedsHomework is returned when sending is requested without a
// homework name, or a homework name is given without sending.
var ErrSendNeedsHomework = errors.New("--send and --name must be used together")

// ErrNoConfirmPrompt is returned when confirmation is requested but no
// prompt was provided.
var ErrNoConfirmPrompt = errors.New("confirmation requested but no prompt is available")

// Options are the user's choices for one run.
type Options struct {
	Send        bool
	Homework    string
	Receive     bool
	ConfigDir   string
	Environment string
	CheckDir    string
	Mode        string // empty means version.DefaultMode
	DryRunDir   string // write .eml files here instead of sending
	Confirm     bool   // ask before sending
}

// LoggerFactory builds the run logger from the resolved log settings. The
// returned function flushes and releases it.
type LoggerFactory func(settings model.LoggingSettings, runID string) (*zap.Logger, func() error, error)

// ConfirmFunc asks whether reminders should go out to students.
type ConfirmFunc func(ctx context.Context, homework string, students []model.Student) (bool, error)

// Deps are the collaborators of a run. Zero values are replaced with the
// production implementations.
type Deps struct {
	Out       io.Writer
	Fs        afero.Fs
	Secrets   config.SecretSource
	NewLogger LoggerFactory
	Transport notify.Transport
	Confirm   ConfirmFunc
	NewRunID  func() string
	// ConfigLogger, when set, receives the config loader's messages. The
	// run logger does not exist until configuration is loaded.
	ConfigLogger *zap.Logger
}

// App is a configured run.
type App struct {
	opts Options
	deps Deps
}

// New returns an App for opts.
func New(opts Options, deps Deps) *App {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.NewLogger == nil {
		deps.NewLogger = defaultLogger
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	return &App{opts: opts, deps: deps}
}

func defaultLogger(settings model.LoggingSettings, runID string) (*zap.Logger, func() error, error) {
	return logging.New(settings, logging.Options{RunID: runID})
}

// Run executes the check. Only fatal problems are returned: an invalid
// mode, a configuration or scan failure, inconsistent send options or a
// notifier that cannot be set up. Failed reminders are reported and do
// not fail the run.
func (a *App) Run(ctx context.Context) error {
	mode, err := a.mode()
	if err != nil {
		return err
	}

	loadOpts := []config.Option{config.WithMode(mode), config.WithFs(a.deps.Fs)}
	if a.deps.Secrets != nil {
		loadOpts = append(loadOpts, config.WithSecrets(a.deps.Secrets))
	}
	if a.deps.ConfigLogger != nil {
		loadOpts = append(loadOpts, config.WithLogger(a.deps.ConfigLogger))
	}
	cfg, err := config.Load(a.opts.Environment, a.opts.ConfigDir, loadOpts...)
	if err != nil {
		return err
	}

	runID := a.deps.NewRunID()
	logger, closeLog, err := a.deps.NewLogger(cfg.Log, runID)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer func() { _ = closeLog() }()

	logger.Info("configuration loaded",
		zap.String("mode", string(mode)),
		zap.String("environment", a.opts.Environment),
		zap.String("config_dir", a.opts.ConfigDir),
		zap.Int("students", len(cfg.Students.List)),
	)

	missing, err := scan.New(a.deps.Fs).FindMissing(cfg.Students.List, a.opts.CheckDir)
	if err != nil {
		logger.Error("scanning submissions failed", zap.Error(err))
		return err
	}
	logger.Info("scan finished", zap.String("dir", a.opts.CheckDir), zap.Int("missing", len(missing)))

	r := newReporter(a.deps.Out)
	if len(missing) == 0 {
		r.allSubmitted()
		a.noteReceive(logger, r)
		return nil
	}
	r.missing(missing)

	if a.opts.Send != (a.opts.Homework != "") {
		return ErrSendNeedsHomework
	}

	if a.opts.Send {
		if err := a.remind(ctx, cfg, missing, logger, r); err != nil {
			return err
		}
	}

	a.noteReceive(logger, r)
	return nil
}

// noteReceive tells the user --resv did nothing.
func (a *App) noteReceive(logger *zap.Logger, r *reporter) {
	if !a.opts.Receive {
		return
	}
	logger.Warn("receiving mail is not implemented")
	r.receiveNotImplemented()
}

func (a *App) mode() (model.Mode, error) {
	name := a.opts.Mode
	if name == "" {
		return version.Mode(), nil
	}
	return model.ParseMode(name)
}

func (a *App) remind(ctx context.Context, cfg *model.AppConfig, missing []model.Student, logger *zap.Logger, r *reporter) error {
	if a.opts.Confirm {
		if a.deps.Confirm == nil {
			return ErrNoConfirmPrompt
		}
		ok, err := a.deps.Confirm(ctx, a.opts.Homework, missing)
		if err != nil {
			return fmt.Errorf("confirming send: %w", err)
		}
		if !ok {
			logger.Info("sending cancelled by user")
			r.cancelled()
			return nil
		}
	}

	notifyOpts := []notify.Option{notify.WithLogger(logger)}
	switch {
	case a.deps.Transport != nil:
		notifyOpts = append(notifyOpts, notify.WithTransport(a.deps.Transport))
	case a.opts.DryRunDir != "":
		notifyOpts = append(notifyOpts, notify.WithTransport(notify.NewFileTransport(a.opts.DryRunDir)))
		r.dryRun(a.opts.DryRunDir)
	}

	n, err := notify.New(cfg.SMTP.Sender(), cfg.SMTP, notifyOpts...)
	if err != nil {
		logger.Error("creating notifier failed", zap.Error(err))
		return fmt.Errorf("creating notifier: %w", err)
	}

	results := n.NotifyAll(ctx, a.opts.Homework, missing)
	r.results(results)
	logger.Info("mail notification finished")
	return nil
}
