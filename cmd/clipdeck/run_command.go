package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clipdeck/internal/backend"
	"clipdeck/internal/config"
	"clipdeck/internal/preflight"
	"clipdeck/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var remote string
	var mode string
	var mediaType string
	var rangeFlags []string

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Upload a video (or reuse an uploaded one) and generate clips",
		Long: "Validates and uploads a local video, or reuses one already on the backend via --remote,\n" +
			"then generates clips. Pass --range START-END (seconds, MM:SS or HH:MM:SS) once per\n" +
			"manual clip; without ranges the backend picks clips itself.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseRangeFlags(rangeFlags)
			if err != nil {
				return err
			}
			clipMode := workflow.Mode(strings.ToLower(strings.TrimSpace(mode)))
			switch clipMode {
			case "", workflow.ModeManual, workflow.ModeAI:
			default:
				return fmt.Errorf("unsupported --mode %q (want manual or ai)", mode)
			}
			req := workflow.Request{Remote: remote, Mode: clipMode, Ranges: inputs}

			return ctx.withLock(func() error {
				return ctx.withSession(cmd, func(s *session) error {
					var result workflow.Result
					if len(args) == 1 {
						path, err := config.ExpandPath(args[0])
						if err != nil {
							return err
						}
						if failed := preflight.Failed([]preflight.Result{preflight.CheckFFprobe(commandCtx(cmd), s.cfg.FFprobeBinary())}); len(failed) > 0 {
							return fmt.Errorf("%s unavailable: %s", failed[0].Name, failed[0].Detail)
						}
						result, err = s.orch.StartFromPath(commandCtx(cmd), path, mediaType, req)
						if err != nil {
							return err
						}
					} else {
						result, err = s.orch.Start(commandCtx(cmd), req)
						if err != nil {
							return err
						}
					}
					return ctx.emit(cmd, result, func(w io.Writer) error {
						fmt.Fprintf(w, "Run %s: %d %s clip(s) for %s\n", result.RunID, len(result.Clips), result.Mode, result.Filename)
						if result.DroppedRanges > 0 {
							fmt.Fprintf(w, "Skipped %d unusable range(s)\n", result.DroppedRanges)
						}
						if len(result.Clips) > 0 {
							fmt.Fprint(w, renderClipTable(result.Clips))
						}
						return nil
					})
				})
			})
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Generate clips for a video already on the backend")
	cmd.Flags().StringVar(&mode, "mode", "", "Clip mode: manual or ai (default: manual when ranges are given)")
	cmd.Flags().StringVar(&mediaType, "type", "", "Declared media type (default: derived from the file extension)")
	cmd.Flags().StringArrayVarP(&rangeFlags, "range", "r", nil, "Manual clip range START-END (repeatable)")
	return cmd
}

// parseRangeFlags splits START-END flags. Timestamps are never negative, so
// the first dash separates the two sides.
func parseRangeFlags(values []string) ([]workflow.RangeInput, error) {
	inputs := make([]workflow.RangeInput, 0, len(values))
	for _, value := range values {
		start, end, ok := strings.Cut(value, "-")
		if !ok {
			return nil, fmt.Errorf("range %q must look like START-END", value)
		}
		inputs = append(inputs, workflow.RangeInput{Start: start, End: end})
	}
	return inputs, nil
}

func renderClipTable(clips []backend.Clip) string {
	rows := make([][]string, 0, len(clips))
	for i, clip := range clips {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			clip.ID.String(),
			formatSeconds(clip.Start),
			formatSeconds(clip.End),
			formatSeconds(clip.Duration()),
			clip.URL,
		})
	}
	return renderTable(
		[]string{"#", "ID", "Start", "End", "Length", "URL"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
