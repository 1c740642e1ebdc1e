package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipdeck/internal/journal"
)

const historyTimeFormat = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent workflow runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				runs, err := store.ListRuns(commandCtx(cmd), limit)
				if err != nil {
					return err
				}
				if runs == nil {
					runs = []*journal.Run{}
				}
				return ctx.emit(cmd, runs, func(w io.Writer) error {
					if len(runs) == 0 {
						fmt.Fprintln(w, "No runs recorded")
						return nil
					}
					rows := make([][]string, 0, len(runs))
					for _, run := range runs {
						rows = append(rows, []string{
							run.ID,
							run.StartedAt.Local().Format(historyTimeFormat),
							run.Input,
							run.Mode,
							displayLabel(run.State),
							strconv.Itoa(run.ClipCount),
							orDash(run.Reason),
						})
					}
					fmt.Fprint(w, renderTable(
						[]string{"Run", "Started", "Input", "Mode", "State", "Clips", "Reason"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					))
					return nil
				})
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

type runDetail struct {
	Run         *journal.Run         `json:"run" yaml:"run"`
	Transitions []journal.Transition `json:"transitions" yaml:"transitions"`
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its state transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				run, err := store.GetRun(commandCtx(cmd), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				transitions, err := store.Transitions(commandCtx(cmd), run.ID)
				if err != nil {
					return err
				}
				detail := runDetail{Run: run, Transitions: transitions}
				return ctx.emit(cmd, detail, func(w io.Writer) error {
					fmt.Fprintf(w, "Run:      %s\n", run.ID)
					fmt.Fprintf(w, "Input:    %s\n", run.Input)
					fmt.Fprintf(w, "Filename: %s\n", orDash(run.Filename))
					fmt.Fprintf(w, "State:    %s\n", displayLabel(run.State))
					if run.ErrorMessage != "" {
						fmt.Fprintf(w, "Error:    %s\n", run.ErrorMessage)
					}
					rows := make([][]string, 0, len(transitions))
					for _, t := range transitions {
						rows = append(rows, []string{
							t.At.Local().Format(historyTimeFormat),
							displayLabel(t.From),
							displayLabel(t.To),
							orDash(t.Reason),
							t.Message,
						})
					}
					fmt.Fprint(w, renderTable([]string{"At", "From", "To", "Reason", "Message"}, rows, nil))
					return nil
				})
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return ctx.withJournal(func(store *journal.Store) error {
				removed, err := store.Prune(commandCtx(cmd), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
