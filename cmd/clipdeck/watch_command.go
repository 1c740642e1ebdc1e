package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"clipdeck/internal/backend"
	"clipdeck/internal/captions"
	"clipdeck/internal/playback"
)

const watchLoadConcurrency = 4

// watchSession mounts one player per clip and keeps them strongly referenced
// until they are unmounted.
type watchSession struct {
	filename string
	clips    map[string]backend.Clip
	order    []string
	registry *playback.Registry
	synth    *captions.Synthesizer

	mu      sync.Mutex
	players map[string]*playback.Player
	out     io.Writer
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <filename>",
		Short: "Mount players for a video's clips and drive the caption toggle",
		Long: "Mounts one player per clip, loads captions for all of them, then reads commands\n" +
			"from stdin: toggle, on, off, mount <clip-id>, unmount <clip-id>, status, quit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				runCtx := commandCtx(cmd)
				clips, err := s.orch.LoadClips(runCtx, args[0])
				if err != nil {
					return err
				}
				registry := playback.NewRegistry(s.manager, s.cfg.Captions.Visible, s.logger)
				defer registry.Close()

				w := &watchSession{
					filename: args[0],
					clips:    make(map[string]backend.Clip, len(clips)),
					registry: registry,
					synth:    captions.NewSynthesizer(s.client, s.manager, registry, s.cfg.Captions.Timeline, s.logger),
					players:  make(map[string]*playback.Player, len(clips)),
					out:      cmd.OutOrStdout(),
				}
				unsubscribe := registry.Subscribe(w.report)
				defer unsubscribe()

				for _, clip := range clips {
					id := clip.ID.String()
					w.clips[id] = clip
					w.order = append(w.order, id)
					w.mount(id)
				}
				if err := w.loadAll(runCtx, w.order); err != nil {
					return err
				}
				w.status()
				return w.interact(runCtx, cmd.InOrStdin())
			})
		},
	}
}

func (w *watchSession) mount(id string) {
	clip := w.clips[id]
	player := playback.NewPlayer(id, clip.URL)
	w.mu.Lock()
	w.players[id] = player
	w.mu.Unlock()
	w.registry.Register(id, player)
}

func (w *watchSession) unmount(id string) {
	w.registry.Unregister(id)
	w.mu.Lock()
	delete(w.players, id)
	w.mu.Unlock()
}

func (w *watchSession) loadAll(ctx context.Context, ids []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(watchLoadConcurrency)
	for _, id := range ids {
		clip := w.clips[id]
		g.Go(func() error {
			w.synth.Load(gctx, w.filename, clip)
			return gctx.Err()
		})
	}
	return g.Wait()
}

func (w *watchSession) interact(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "toggle":
			w.registry.SetToggle(!w.registry.Visible())
		case "on":
			w.registry.SetToggle(true)
		case "off":
			w.registry.SetToggle(false)
		case "mount":
			if len(fields) != 2 {
				w.printf("usage: mount <clip-id>\n")
				continue
			}
			if _, ok := w.clips[fields[1]]; !ok {
				w.printf("unknown clip %s\n", fields[1])
				continue
			}
			w.mount(fields[1])
			if err := w.loadAll(ctx, fields[1:2]); err != nil {
				return err
			}
		case "unmount":
			if len(fields) != 2 {
				w.printf("usage: unmount <clip-id>\n")
				continue
			}
			w.unmount(fields[1])
		case "status":
			w.status()
		case "quit", "exit":
			return nil
		default:
			w.printf("unknown command %q\n", fields[0])
		}
	}
	return scanner.Err()
}

func (w *watchSession) report(ev playback.Event) {
	switch ev.Kind {
	case playback.OnToggleChanged:
		w.printf("captions %s\n", map[bool]string{true: "on", false: "off"}[ev.Visible])
	case playback.OnMount:
		w.printf("mounted clip %s\n", ev.ClipID)
	case playback.OnUnmount:
		w.printf("unmounted clip %s\n", ev.ClipID)
	case playback.OnCaptionAttached:
		w.printf("captions attached to clip %s\n", ev.ClipID)
	case playback.OnCaptionDetached:
		w.printf("captions detached from clip %s\n", ev.ClipID)
	}
}

func (w *watchSession) status() {
	rows := make([][]string, 0, len(w.order))
	for _, id := range w.order {
		player, ok := w.registry.Lookup(id)
		if !ok {
			rows = append(rows, []string{id, "no", "-", "-"})
			continue
		}
		caption := "-"
		if h := player.CaptionResource(); h != nil {
			caption = h.URL()
		}
		rows = append(rows, []string{id, "yes", displayLabel(string(player.CaptionMode())), caption})
	}
	w.printf("%s", renderTable([]string{"Clip", "Mounted", "Captions", "Resource"}, rows, nil))
}

func (w *watchSession) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}
