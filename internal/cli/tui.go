package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/deadline/internal/notify"
	"github.com/tgienger/deadline/internal/priority"
	"github.com/tgienger/deadline/internal/ui"
)

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	e, err := openEnv(ctx, opts, true)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	// Reminders live in this process only, so they are re-armed on launch.
	restored := e.store.RestoreReminders()
	if e.sched != nil {
		if pending := e.sched.Pending(); len(pending) > 0 {
			e.logger.Sugar().Infow("reminders restored", "count", restored, "next", pending[0].FireAt)
		}
	}

	filter, err := priority.ParseFilter(e.cfg.UI.DefaultFilter)
	if err != nil {
		return err
	}

	var fired <-chan notify.Reminder
	if e.sched != nil {
		fired = e.sched.Fired()
	}

	app := ui.NewApp(e.store, e.db, ui.Options{
		DefaultFilter: filter,
		Reminders:     fired,
		Logger:        e.logger.Sugar().Named("ui"),
		Warning:       e.loadWarning(),
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
