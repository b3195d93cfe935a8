package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tgienger/deadline/internal/due"
	"github.com/tgienger/deadline/internal/models"
	"github.com/tgienger/deadline/internal/priority"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		desc       string
		dueAt      string
		prio       string
		noReminder bool
	)

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task",
		Example: `  deadline add Pay rent --due 2026-03-31
  deadline add "Call mom" --due tomorrow --priority high
  deadline add Renew passport --due "in 30 days" --no-reminder`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := due.Parse(dueAt, time.Now())
			if err != nil {
				return err
			}
			custom, err := parsePriority(prio)
			if err != nil {
				return err
			}

			return withEnv(cmd, opts, func(e *env) error {
				task, err := e.store.Create(models.TaskInput{
					Title:          strings.Join(args, " "),
					Description:    desc,
					DueDate:        dueDate,
					Reminder:       !noReminder,
					CustomPriority: custom,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", task.ID, task.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&desc, "desc", "d", "", "Description")
	cmd.Flags().StringVar(&dueAt, "due", "", `Due date: "YYYY-MM-DD HH:MM", "YYYY-MM-DD" or a phrase like tomorrow or "in 3 days"`)
	cmd.Flags().StringVarP(&prio, "priority", "p", "", "Fixed priority: low, medium or high (default follows the due date)")
	cmd.Flags().BoolVar(&noReminder, "no-reminder", false, "Do not remind when the task comes due")
	return cmd
}

func parsePriority(s string) (models.Urgency, error) {
	if s == "" || strings.EqualFold(s, "auto") {
		return "", nil
	}
	u := models.Urgency(strings.ToLower(s))
	if !u.Assignable() {
		return "", fmt.Errorf("priority must be low, medium or high, got %q", s)
	}
	return u, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		filterName string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks by urgency",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				name := filterName
				if !cmd.Flags().Changed("filter") {
					name = e.cfg.UI.DefaultFilter
				}
				filter, err := priority.ParseFilter(name)
				if err != nil {
					return err
				}

				now := time.Now()
				tasks := e.store.ListSorted(now, filter)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(tasks)
				}
				renderList(cmd.OutOrStdout(), tasks, filter, now)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filterName, "filter", "f", "", "all, active, overdue, high, medium, low or done")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tasks as JSON")
	return cmd
}

func renderList(w io.Writer, tasks []models.Task, filter priority.Filter, now time.Time) {
	if len(tasks) == 0 {
		if filter == priority.FilterAll {
			fmt.Fprintln(w, "No tasks.")
		} else {
			fmt.Fprintf(w, "No %s tasks.\n", strings.ToLower(filter.Label()))
		}
		return
	}

	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	n := shortIDLen(ids)

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		urgency := "Done"
		if !t.Completed {
			urgency = priority.Label(priority.Classify(t, now))
		}
		dueText := "-"
		if t.DueDate != nil {
			dueText = priority.DueLabel(*t.DueDate, now)
		}
		rows[i] = []string{shortID(t.ID, n), urgency, dueText, t.Title}
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("ID", "URGENCY", "DUE", "TITLE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(1)
		})
	fmt.Fprintln(w, tbl.Render())
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK",
		Short: "Show one task",
		Long:  "TASK is a task id, a unique id prefix or part of the title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				task, err := resolveTask(e.store.List(), args[0])
				if err != nil {
					return err
				}
				renderTask(cmd.OutOrStdout(), task, time.Now())
				return nil
			})
		},
	}
}

func renderTask(w io.Writer, t models.Task, now time.Time) {
	status := "Done"
	if !t.Completed {
		status = priority.Label(priority.Classify(t, now))
	}
	fmt.Fprintf(w, "%s\n", t.Title)
	fmt.Fprintf(w, "  id:        %s\n", t.ID)
	fmt.Fprintf(w, "  urgency:   %s\n", status)
	if t.DueDate != nil {
		fmt.Fprintf(w, "  due:       %s (%s)\n", due.Format(t.DueDate), priority.DueLabel(*t.DueDate, now))
	}
	fmt.Fprintf(w, "  reminder:  %t\n", t.Reminder)
	if t.CustomPriority != "" {
		fmt.Fprintf(w, "  priority:  %s\n", priority.Label(t.CustomPriority))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "  notes:     %s\n", t.Description)
	}
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done TASK",
		Short: "Mark a task done, or reopen a done one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				task, err := resolveTask(e.store.List(), args[0])
				if err != nil {
					return err
				}
				task, err = e.store.ToggleCompleted(task.ID)
				if err != nil {
					return err
				}
				verb := "Reopened"
				if task.Completed {
					verb = "Completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, task.Title)
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm TASK",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				task, err := resolveTask(e.store.List(), args[0])
				if err != nil {
					return err
				}
				if err := e.store.Delete(task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", task.Title)
				return nil
			})
		},
	}
}
