package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clipdeck/internal/backend"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List videos on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				videos, err := s.orch.RefreshVideos(commandCtx(cmd))
				if err != nil {
					return err
				}
				if videos == nil {
					videos = []backend.Video{}
				}
				return ctx.emit(cmd, videos, func(w io.Writer) error {
					if len(videos) == 0 {
						fmt.Fprintln(w, "No videos uploaded")
						return nil
					}
					rows := make([][]string, 0, len(videos))
					for _, v := range videos {
						rows = append(rows, []string{v.Filename, v.RemoteURL})
					}
					fmt.Fprint(w, renderTable([]string{"Filename", "URL"}, rows, nil))
					return nil
				})
			})
		},
	}
}

func newClipsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clips <filename>",
		Short: "List the clips generated for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				clips, err := s.orch.LoadClips(commandCtx(cmd), args[0])
				if err != nil {
					return err
				}
				if clips == nil {
					clips = []backend.Clip{}
				}
				return ctx.emit(cmd, clips, func(w io.Writer) error {
					if len(clips) == 0 {
						fmt.Fprintf(w, "No clips for %s\n", args[0])
						return nil
					}
					fmt.Fprint(w, renderClipTable(clips))
					return nil
				})
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete clips or videos on the backend",
	}

	deleteCmd.AddCommand(&cobra.Command{
		Use:   "clip <filename> <clip-id>",
		Short: "Delete one clip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				return ctx.withSession(cmd, func(s *session) error {
					if err := s.orch.DeleteClip(commandCtx(cmd), args[0], backend.ClipID(args[1])); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted clip %s of %s\n", args[1], args[0])
					return nil
				})
			})
		},
	})
	deleteCmd.AddCommand(&cobra.Command{
		Use:   "video <filename>",
		Short: "Delete a video and its clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				return ctx.withSession(cmd, func(s *session) error {
					if err := s.orch.DeleteVideo(commandCtx(cmd), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %s\n", args[0])
					return nil
				})
			})
		},
	})
	return deleteCmd
}
