package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clipdeck/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories and backend reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var pinger preflight.Pinger
			if !offline {
				client, err := ctx.backendClient()
				if err != nil {
					return err
				}
				pinger = client
			}
			results := preflight.RunAll(commandCtx(cmd), cfg, pinger)
			if err := ctx.emit(cmd, results, func(w io.Writer) error {
				colorize := shouldColorize(w)
				for _, r := range results {
					kind := statusOK
					switch {
					case !r.Passed && r.Optional:
						kind = statusWarn
					case !r.Passed:
						kind = statusError
					}
					fmt.Fprintln(w, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				return nil
			}); err != nil {
				return err
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend reachability check")
	return cmd
}
