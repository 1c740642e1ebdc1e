package main

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"clipdeck/internal/backend"
	"clipdeck/internal/captions"
	"clipdeck/internal/config"
	"clipdeck/internal/fileutil"
	"clipdeck/internal/textutil"
)

type captionView struct {
	ClipID string         `json:"clip_id" yaml:"clip_id"`
	Start  float64        `json:"start" yaml:"start"`
	End    float64        `json:"end" yaml:"end"`
	Cues   []captions.Cue `json:"cues" yaml:"cues"`
	Path   string         `json:"path,omitempty" yaml:"path,omitempty"`
}

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var timeline string

	cmd := &cobra.Command{
		Use:   "captions <filename> [clip-id...]",
		Short: "Render WebVTT captions for a video's clips",
		Long: "Fetches the video transcript and renders one WebVTT document per clip.\n" +
			"Only transcript segments fully inside a clip become cues. Documents go to stdout\n" +
			"unless --out names a directory.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			return ctx.withSession(cmd, func(s *session) error {
				clips, err := s.orch.LoadClips(commandCtx(cmd), filename)
				if err != nil {
					return err
				}
				selected, err := selectClips(clips, args[1:])
				if err != nil {
					return err
				}
				line := s.cfg.Captions.Timeline
				switch timeline {
				case "":
				case config.TimelineClip, config.TimelineSource:
					line = timeline
				default:
					return fmt.Errorf("unsupported --timeline %q (want clip or source)", timeline)
				}
				synth := captions.NewSynthesizer(s.client, s.manager, nil, line, s.logger)

				views := make([]captionView, 0, len(selected))
				docs := make([][]byte, 0, len(selected))
				for _, idx := range selected {
					clip := clips[idx]
					track := synth.Synthesize(commandCtx(cmd), filename, clip)
					view := captionView{ClipID: track.ClipID, Start: track.Start, End: track.End, Cues: track.Cues}
					if view.Cues == nil {
						view.Cues = []captions.Cue{}
					}
					doc := synth.Render(track)
					if outDir != "" && !track.Empty() {
						dir, err := config.ExpandPath(outDir)
						if err != nil {
							return err
						}
						view.Path = filepath.Join(dir, textutil.CaptionFileName(filename, track.ClipID))
						if err := fileutil.WriteFileAtomic(view.Path, doc, 0o644); err != nil {
							return fmt.Errorf("write captions for clip %s: %w", track.ClipID, err)
						}
					}
					views = append(views, view)
					docs = append(docs, doc)
				}

				return ctx.emit(cmd, views, func(w io.Writer) error {
					for i, view := range views {
						switch {
						case view.Path != "":
							fmt.Fprintf(w, "Clip %s: %d cue(s) -> %s\n", view.ClipID, len(view.Cues), view.Path)
						case outDir != "":
							fmt.Fprintf(w, "Clip %s: no captions\n", view.ClipID)
						default:
							// A lone document stays valid WebVTT for piping.
							if len(views) > 1 {
								fmt.Fprintf(w, "==> clip %s <==\n", view.ClipID)
							}
							_, _ = w.Write(docs[i])
						}
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write one .vtt file per clip into this directory")
	cmd.Flags().StringVar(&timeline, "timeline", "", "Cue timeline: clip or source (default from config)")
	return cmd
}

// selectClips returns listing positions for ids, in listing order. With no
// ids every clip is selected.
func selectClips(clips []backend.Clip, ids []string) ([]int, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []int
	for i, clip := range clips {
		if len(ids) == 0 || want[clip.ID.String()] {
			out = append(out, i)
			delete(want, clip.ID.String())
		}
	}
	if len(want) > 0 {
		missing := slices.Sorted(maps.Keys(want))
		return nil, fmt.Errorf("clip %s not found", strings.Join(missing, ", "))
	}
	return out, nil
}
