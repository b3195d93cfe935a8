package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgienger/deadline/internal/config"
	"github.com/tgienger/deadline/internal/db"
	"github.com/tgienger/deadline/internal/logging"
	"github.com/tgienger/deadline/internal/notify"
	"github.com/tgienger/deadline/internal/store"
)

// reminderBuffer bounds fired reminders waiting for the UI
const reminderBuffer = 16

// env is everything a command needs, opened in dependency order
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error
	db       *db.DB
	sched    *notify.Scheduler // nil when reminders are not delivered in this process
	store    *store.Store

	// loadErr is set when saved tasks could not be loaded; the store then
	// starts empty
	loadErr error
}

// openEnv loads config, opens the database and loads the task store. With
// reminders set and enabled in config, an in-process scheduler is attached.
func openEnv(ctx context.Context, opts *rootOptions, reminders bool) (*env, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Console = true
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	log := logger.Sugar()

	database, err := db.New(cfg.DBPath())
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}

	e := &env{cfg: cfg, logger: logger, closeLog: closeLog, db: database}

	var notifier store.Notifier
	if reminders && cfg.Reminders.Enabled {
		e.sched = notify.NewScheduler(reminderBuffer, notify.WithLogger(log.Named("notify")))
		notifier = e.sched
	}

	e.store = store.New(database, notifier,
		store.WithLogger(log.Named("store")),
		store.WithWriteTimeout(cfg.Storage.WriteTimeout),
		store.WithReminderTitle(cfg.Reminders.Title),
		store.WithGuardUnread(),
	)

	if err := e.store.Initialize(ctx); err != nil {
		log.Warnw("starting with an empty task list", "error", err, "writesHeld", e.store.WritesHeld())
		e.loadErr = err
	}

	return e, nil
}

// loadWarning describes a failed load for the user, or "" when tasks loaded
func (e *env) loadWarning() string {
	if e.loadErr == nil {
		return ""
	}
	if e.store.WritesHeld() {
		return fmt.Sprintf("could not load saved tasks (%v); changes will not be saved", e.loadErr)
	}
	return fmt.Sprintf("saved tasks were unreadable (%v); a copy was kept as %q", e.loadErr, store.CorruptKey)
}

// close flushes pending writes and releases everything openEnv acquired
func (e *env) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*e.cfg.Storage.WriteTimeout)
	defer cancel()

	var errs []error
	if err := e.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("save tasks: %w", err))
	}
	if e.sched != nil {
		e.sched.Close()
	}
	if err := e.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if err := e.closeLog(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}

// withEnv runs fn against an opened env without in-process reminders and
// closes it afterwards
func withEnv(cmd *cobra.Command, opts *rootOptions, fn func(e *env) error) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, opts, false)
	if err != nil {
		return err
	}
	if w := e.loadWarning(); w != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
	}
	return errors.Join(fn(e), e.close(ctx))
}
